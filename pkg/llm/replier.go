// Package llm abstracts the external AI reply generator. The core pipeline
// only depends on the Replier interface; concrete providers live in
// subpackages.
package llm

import "context"

// Replier generates a reply to a scraped message. An empty reply with a
// nil error means "do not respond to this one" and is a normal outcome,
// not a failure.
type Replier interface {
	GenerateReply(ctx context.Context, messageText, authorUsername string) (string, error)
}

// ReplierFunc adapts a function to the Replier interface.
type ReplierFunc func(ctx context.Context, messageText, authorUsername string) (string, error)

// GenerateReply implements Replier.
func (f ReplierFunc) GenerateReply(ctx context.Context, messageText, authorUsername string) (string, error) {
	return f(ctx, messageText, authorUsername)
}
