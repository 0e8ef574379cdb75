// Package openai generates replies through an OpenAI-compatible chat
// completion endpoint.
package openai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultModel = "gpt-4o-mini"

	// skipToken is what the model is told to emit when a message does not
	// deserve a reply; it maps to the Replier contract's empty result.
	skipToken = "SKIP"

	defaultPersona = "You are a sharp, friendly social media account replying to mentions. " +
		"Keep replies under 250 characters, conversational, no hashtags. " +
		"If the message is spam, hostile bait, or not worth engaging, respond with exactly SKIP."
)

// Replier implements llm.Replier against an OpenAI-compatible API.
type Replier struct {
	client  openai.Client
	model   string
	persona string
}

// Option configures a Replier.
type Option func(*Replier)

// WithModel sets the completion model.
func WithModel(model string) Option {
	return func(r *Replier) {
		if model != "" {
			r.model = model
		}
	}
}

// WithPersona replaces the default system prompt.
func WithPersona(persona string) Option {
	return func(r *Replier) {
		if persona != "" {
			r.persona = persona
		}
	}
}

// New creates a Replier. An empty apiKey falls back to OPENAI_API_KEY; an
// empty baseURL uses the standard endpoint, enabling local or proxied
// OpenAI-compatible services via OPENAI_BASE_URL-style configuration.
func New(apiKey, baseURL string, opts ...Option) (*Replier, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (parameter or OPENAI_API_KEY)")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}

	r := &Replier{
		client:  openai.NewClient(clientOpts...),
		model:   defaultModel,
		persona: defaultPersona,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// GenerateReply produces a reply to one mention, or "" when the model
// declines to engage.
func (r *Replier) GenerateReply(ctx context.Context, messageText, authorUsername string) (string, error) {
	completion, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(r.persona),
			openai.UserMessage(fmt.Sprintf("@%s mentioned you: %s", authorUsername, messageText)),
		},
		MaxTokens:   openai.Int(150),
		Temperature: openai.Float(0.8),
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}

	reply := strings.TrimSpace(completion.Choices[0].Message.Content)
	if reply == "" || strings.EqualFold(reply, skipToken) {
		return "", nil
	}
	return reply, nil
}
