// Package publisher drives the browser to post new messages and replies.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/perchlabs/perch/pkg/config"
	"github.com/perchlabs/perch/pkg/logging"
)

// Driver is the slice of browser operations publishing consumes.
// *browser.Driver implements it; tests script it.
type Driver interface {
	Goto(url string, timeout time.Duration) error
	Settle(delay time.Duration)
	FillAny(selectors []string, value string, timeout time.Duration) error
	ClickAny(selectors []string, timeout time.Duration) (string, error)
}

// ErrNotAuthenticated is returned when publishing is attempted without an
// authenticated session. The caller must login first.
var ErrNotAuthenticated = errors.New("not authenticated: login required before publishing")

// PublishError wraps the UI step that failed. There is no internal retry; a
// caller wanting resilience re-invokes.
type PublishError struct {
	Step string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed at step %q: %v", e.Step, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Result reports a completed publish.
type Result struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
}

// Authenticator gates publishing on a live session.
type Authenticator interface {
	IsAuthenticated() bool
}

// Timeouts for publish steps.
const (
	publishNavTimeout  = 15 * time.Second
	publishStepTimeout = 10 * time.Second
	publishSettle      = 2 * time.Second
)

// Publisher posts messages and replies. Calls must be serialized by the
// agent's single-flight lock like every other browser operation.
type Publisher struct {
	drv  Driver
	sel  *config.Selectors
	auth Authenticator
	log  *logging.Logger
}

// New creates a publisher.
func New(drv Driver, sel *config.Selectors, auth Authenticator, log *logging.Logger) *Publisher {
	return &Publisher{drv: drv, sel: sel, auth: auth, log: log}
}

// Post publishes a new top-level message.
func (p *Publisher) Post(ctx context.Context, text string) (*Result, error) {
	if err := p.precheck(ctx); err != nil {
		return nil, err
	}

	if err := p.drv.Goto(p.sel.ComposeURL, publishNavTimeout); err != nil {
		return nil, &PublishError{Step: "navigate-compose", Err: err}
	}
	p.drv.Settle(publishSettle)

	if err := p.drv.FillAny(p.sel.ComposeBox, text, publishStepTimeout); err != nil {
		return nil, &PublishError{Step: "fill-compose", Err: err}
	}
	if _, err := p.drv.ClickAny(p.sel.SendButtons, publishStepTimeout); err != nil {
		return nil, &PublishError{Step: "send", Err: err}
	}
	p.drv.Settle(publishSettle)

	p.log.Infof("posted message (%d chars)", len(text))
	return &Result{Success: true, Content: text}, nil
}

// Reply publishes a reply to an existing message identified by its
// platform id.
func (p *Publisher) Reply(ctx context.Context, targetID, text string) (*Result, error) {
	if err := p.precheck(ctx); err != nil {
		return nil, err
	}

	statusURL := fmt.Sprintf(p.sel.StatusURL, targetID)
	if err := p.drv.Goto(statusURL, publishNavTimeout); err != nil {
		return nil, &PublishError{Step: "navigate-status", Err: err}
	}
	p.drv.Settle(publishSettle)

	if _, err := p.drv.ClickAny(p.sel.ReplyButtons, publishStepTimeout); err != nil {
		return nil, &PublishError{Step: "open-reply", Err: err}
	}
	if err := p.drv.FillAny(p.sel.ReplyBox, text, publishStepTimeout); err != nil {
		return nil, &PublishError{Step: "fill-reply", Err: err}
	}
	if _, err := p.drv.ClickAny(p.sel.ReplySendButtons, publishStepTimeout); err != nil {
		return nil, &PublishError{Step: "send-reply", Err: err}
	}
	p.drv.Settle(publishSettle)

	p.log.Infof("replied to %s (%d chars)", targetID, len(text))
	return &Result{Success: true, Content: text}, nil
}

func (p *Publisher) precheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.auth.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}
