// Package monitor runs the periodic mention-discovery cycle and fans new
// records out to subscribers.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/perchlabs/perch/pkg/logging"
	"github.com/perchlabs/perch/pkg/scraper"
)

// Source produces new mention records. Satisfied by *scraper.Scraper; the
// agent wraps it so every cycle holds the single-flight browser lock.
type Source interface {
	ScrapeMentions(ctx context.Context) ([]scraper.Record, error)
}

// Handler consumes one discovered mention. Handlers run sequentially in
// discovery order, never concurrently with each other; a returned error is
// logged and the cycle continues.
type Handler func(ctx context.Context, rec scraper.Record) error

// State is a snapshot of the loop's counters for status queries.
type State struct {
	Active          bool      `json:"active"`
	LastSeenID      string    `json:"lastSeenId,omitempty"`
	ProcessedCount  int       `json:"processedCount"`
	CycleCount      int       `json:"cycleCount"`
	DispatchedCount int       `json:"dispatchedCount"`
	StartedAt       time.Time `json:"startedAt,omitempty"`
}

type subscription struct {
	id      int
	handler Handler
}

// Loop is the cancellable periodic monitoring task. Start and Stop are
// idempotent; cycles never overlap because each tick runs the cycle to
// completion before the next tick is consumed.
type Loop struct {
	source Source
	log    *logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	subs   []subscription
	nextID int
	state  State
}

// New creates a loop over the given source.
func New(source Source, log *logging.Logger) *Loop {
	return &Loop{source: source, log: log}
}

// Subscribe registers a handler for future discoveries and returns its
// cancellation func. Handlers are invoked in registration order.
func (l *Loop) Subscribe(h Handler) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	l.subs = append(l.subs, subscription{id: id, handler: h})

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, sub := range l.subs {
			if sub.id == id {
				l.subs = append(l.subs[:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

// Start begins monitoring: one immediate cycle, then a cycle per interval.
// Starting an active loop is a logged no-op, leaving exactly one schedule.
func (l *Loop) Start(interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.log.Infof("monitoring already active, ignoring start")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	l.state = State{Active: true, StartedAt: time.Now()}
	l.log.Infof("monitoring started, interval %s", interval)

	go l.run(ctx, interval, l.done)
}

// Stop cancels future cycles. An in-flight cycle finishes; Stop does not
// wait for it. Stopping an inactive loop is a logged no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel == nil {
		l.log.Infof("monitoring not active, ignoring stop")
		return
	}

	l.cancel()
	l.cancel = nil
	l.state.Active = false
	l.log.Infof("monitoring stopped")
}

// Wait blocks until the loop goroutine exits, for orderly shutdown.
func (l *Loop) Wait() {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Active reports whether a schedule currently exists.
func (l *Loop) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// State returns a snapshot of the loop counters.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	l.cycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cycle(ctx)
		}
	}
}

// cycle runs one scrape-and-dispatch pass. Scrape and handler errors are
// contained here: nothing a cycle does may stop the loop.
func (l *Loop) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	records, err := l.scrape(ctx)

	l.mu.Lock()
	l.state.CycleCount++
	subs := make([]subscription, len(l.subs))
	copy(subs, l.subs)
	l.mu.Unlock()

	if err != nil {
		l.log.Errorf("scrape cycle failed: %v", err)
		return
	}

	for _, rec := range records {
		for _, sub := range subs {
			if err := l.dispatch(ctx, sub, rec); err != nil {
				l.log.Errorf("handler failed for mention %s: %v", rec.ID, err)
			}
		}

		l.mu.Lock()
		l.state.ProcessedCount++
		l.state.DispatchedCount += len(subs)
		l.state.LastSeenID = rec.ID
		l.mu.Unlock()
	}
}

// scrape converts a panicking source into a cycle error. The loop
// goroutine has no recover between here and process exit, so a panic that
// escaped would take the whole agent down.
func (l *Loop) scrape(ctx context.Context) (records []scraper.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scrape panicked: %v", r)
		}
	}()
	return l.source.ScrapeMentions(ctx)
}

// dispatch invokes one handler, converting a panic into an error so one
// bad subscriber cannot stop the loop or starve the others.
func (l *Loop) dispatch(ctx context.Context, sub subscription, rec scraper.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return sub.handler(ctx, rec)
}
