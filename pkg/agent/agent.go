// Package agent ties the automation components into one explicit object
// owning the browser, the session, and the monitoring state, with a
// single-flight lock serializing every operation that touches the shared
// page. One Agent per process; construct with New, then Open, then Close.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/perchlabs/perch/pkg/auth"
	"github.com/perchlabs/perch/pkg/browser"
	"github.com/perchlabs/perch/pkg/classify"
	"github.com/perchlabs/perch/pkg/config"
	"github.com/perchlabs/perch/pkg/llm"
	"github.com/perchlabs/perch/pkg/logging"
	"github.com/perchlabs/perch/pkg/memory"
	"github.com/perchlabs/perch/pkg/monitor"
	"github.com/perchlabs/perch/pkg/publisher"
	"github.com/perchlabs/perch/pkg/scraper"
	"github.com/perchlabs/perch/pkg/session"
)

// Stats is the agent's status snapshot.
type Stats struct {
	Authenticated bool          `json:"authenticated"`
	CurrentURL    string        `json:"currentUrl,omitempty"`
	ProcessedIDs  int           `json:"processedIds"`
	Monitor       monitor.State `json:"monitor"`
	UptimeSeconds int64         `json:"uptimeSeconds"`
}

// Agent is the social automation agent.
type Agent struct {
	// flight serializes all browser-touching operations: one browser, one
	// page, no notion of concurrent independent operations underneath.
	flight sync.Mutex

	cfg *config.Config
	sel *config.Selectors
	log *logging.Logger

	drv       *browser.Driver
	sessions  *session.FileStore
	login     *auth.Login
	validator *auth.Validator
	scraper   *scraper.Scraper
	loop      *monitor.Loop
	pub       *publisher.Publisher

	replier llm.Replier   // optional, nil disables auto-replies
	mem     *memory.Store // optional, nil disables interaction records

	opened        bool
	authenticated bool
	openedAt      time.Time
}

// Option customizes an Agent.
type Option func(*Agent)

// WithReplier wires the AI reply generator used by the default mention
// handler.
func WithReplier(r llm.Replier) Option {
	return func(a *Agent) { a.replier = r }
}

// WithMemory wires the interaction store.
func WithMemory(m *memory.Store) Option {
	return func(a *Agent) { a.mem = m }
}

// New constructs an unopened agent from configuration.
func New(cfg *config.Config, sel *config.Selectors, log *logging.Logger, opts ...Option) *Agent {
	a := &Agent{cfg: cfg, sel: sel, log: log}
	for _, opt := range opts {
		opt(a)
	}

	a.drv = browser.New(browser.Options{
		Headless:    cfg.Headless,
		ArtifactDir: cfg.ArtifactDir,
	}, log)
	a.sessions = session.NewFileStore(cfg.SessionPath, log)
	a.login = auth.NewLogin(a.drv, cfg.Credentials, sel, log)
	a.validator = auth.NewValidator(a.drv, sel, log)
	a.scraper = scraper.New(a.drv, classify.New(), sel, log)
	a.pub = publisher.New(a.drv, sel, singleProbeAuth{a}, log)
	a.loop = monitor.New(flightSource{a}, log)

	a.loop.Subscribe(a.handleMention)
	return a
}

// Open starts the browser and establishes an authenticated session:
// restored from disk when the saved state still validates, otherwise via a
// fresh login, which is then persisted best-effort.
func (a *Agent) Open(ctx context.Context) error {
	a.flight.Lock()
	defer a.flight.Unlock()

	if a.opened {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := a.drv.Open(); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	a.opened = true
	a.openedAt = time.Now()

	if sess := a.sessions.Restore(); sess != nil {
		if err := session.Apply(sess, a.drv, a.sel.HomeURL); err != nil {
			a.log.Warnf("session restore failed, falling back to login: %v", err)
		} else if a.validator.IsAuthenticated() {
			a.log.Infof("restored session validated, login skipped")
			a.authenticated = true
			return nil
		}
		a.log.Infof("restored session is stale, discarding")
		a.sessions.Discard()
	}

	if err := a.login.Run(); err != nil {
		return err
	}
	a.authenticated = true

	// Persistence is best-effort: an in-memory login is not undone by a
	// failed save.
	if sess, err := session.Capture(a.drv); err != nil {
		a.log.Warnf("session capture failed: %v", err)
	} else if err := a.sessions.Save(sess); err != nil {
		a.log.Warnf("session save failed: %v", err)
	}
	return nil
}

// Close stops monitoring and tears down the browser.
func (a *Agent) Close() error {
	a.StopMonitoring()
	a.loop.Wait()

	a.flight.Lock()
	defer a.flight.Unlock()

	if !a.opened {
		return nil
	}
	a.opened = false
	a.authenticated = false
	return a.drv.Close()
}

// Post publishes a new top-level message.
func (a *Agent) Post(ctx context.Context, text string) (*publisher.Result, error) {
	a.flight.Lock()
	defer a.flight.Unlock()
	return a.pub.Post(ctx, text)
}

// Reply publishes a reply to the message with the given platform id.
func (a *Agent) Reply(ctx context.Context, targetID, text string) (*publisher.Result, error) {
	a.flight.Lock()
	defer a.flight.Unlock()
	return a.pub.Reply(ctx, targetID, text)
}

// CheckMentions runs one manual scrape pass.
func (a *Agent) CheckMentions(ctx context.Context) ([]scraper.Record, error) {
	a.flight.Lock()
	defer a.flight.Unlock()
	return a.scraper.ScrapeMentions(ctx)
}

// CheckChat scrapes new messages from the chat stream on the current page.
func (a *Agent) CheckChat(ctx context.Context) ([]scraper.ScrapedMessage, error) {
	a.flight.Lock()
	defer a.flight.Unlock()
	return a.scraper.ScrapeChat(ctx)
}

// Subscribe registers an additional mention handler.
func (a *Agent) Subscribe(h monitor.Handler) (cancel func()) {
	return a.loop.Subscribe(h)
}

// StartMonitoring begins the periodic mention check. A non-positive
// interval uses the configured default.
func (a *Agent) StartMonitoring(interval time.Duration) {
	if interval <= 0 {
		interval = a.cfg.PollInterval
	}
	a.loop.Start(interval)
}

// StopMonitoring cancels future monitoring cycles.
func (a *Agent) StopMonitoring() {
	a.loop.Stop()
}

// Stats returns a status snapshot.
func (a *Agent) Stats() Stats {
	a.flight.Lock()
	authenticated := a.authenticated
	url := a.drv.URL()
	var uptime int64
	if a.opened {
		uptime = int64(time.Since(a.openedAt).Seconds())
	}
	a.flight.Unlock()

	return Stats{
		Authenticated: authenticated,
		CurrentURL:    url,
		ProcessedIDs:  a.scraper.Seen().Len(),
		Monitor:       a.loop.State(),
		UptimeSeconds: uptime,
	}
}

// handleMention is the default subscriber: generate a reply, publish it,
// and record the interaction.
func (a *Agent) handleMention(ctx context.Context, rec scraper.Record) error {
	a.log.Infof("mention from @%s: %s", rec.Author.Username, rec.Text)

	if a.replier == nil {
		return nil
	}

	reply, err := a.replier.GenerateReply(ctx, rec.Text, rec.Author.Username)
	if err != nil {
		return fmt.Errorf("generate reply for %s: %w", rec.ID, err)
	}
	if reply == "" {
		a.log.Infof("replier declined mention %s", rec.ID)
		return nil
	}

	if _, err := a.Reply(ctx, rec.ID, reply); err != nil {
		return fmt.Errorf("publish reply to %s: %w", rec.ID, err)
	}

	if a.mem != nil {
		it := memory.Interaction{
			Platform:        a.sel.Domain,
			Type:            "mention",
			OriginalMessage: rec.Text,
			Author:          rec.Author.Username,
			Response:        reply,
			Timestamp:       time.Now(),
		}
		if err := a.mem.Record(ctx, it); err != nil {
			a.log.Warnf("interaction record failed: %v", err)
		}
	}
	return nil
}

// flightSource routes the monitor's scrapes through the single-flight
// lock so a cycle cannot interleave with a manual operation mid-scrape.
type flightSource struct{ a *Agent }

func (s flightSource) ScrapeMentions(ctx context.Context) ([]scraper.Record, error) {
	s.a.flight.Lock()
	defer s.a.flight.Unlock()
	return s.a.scraper.ScrapeMentions(ctx)
}

// singleProbeAuth answers the publisher's precondition from the agent's
// own state: once Open has authenticated, re-probing the live page before
// every publish would cost a navigation for nothing.
type singleProbeAuth struct{ a *Agent }

func (p singleProbeAuth) IsAuthenticated() bool { return p.a.authenticated }
