package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perchlabs/perch/pkg/config"
	"github.com/perchlabs/perch/pkg/llm"
	"github.com/perchlabs/perch/pkg/logging"
	"github.com/perchlabs/perch/pkg/scraper"
)

// TestMain shares one log directory across the whole test binary:
// pkg/logging caches the directory in a package-global sync.Once, so a
// per-test t.TempDir() would be deleted while later tests still log to it.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "perch-agent-test-logs-*")
	if err != nil {
		panic(err)
	}
	os.Setenv("PERCH_LOG_DIR", dir)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func testAgent(t *testing.T, opts ...Option) *Agent {
	t.Helper()

	log, err := logging.New("agent-test")
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	cfg := &config.Config{
		Headless:     true,
		SessionPath:  filepath.Join(t.TempDir(), "session.json"),
		PollInterval: time.Minute,
		Credentials:  config.Credentials{Username: "perch", Password: "hunter2"},
	}
	return New(cfg, config.DefaultSelectors(), log, opts...)
}

func TestStatsBeforeOpen(t *testing.T) {
	a := testAgent(t)

	stats := a.Stats()
	assert.False(t, stats.Authenticated)
	assert.Empty(t, stats.CurrentURL)
	assert.Zero(t, stats.UptimeSeconds)
	assert.Zero(t, stats.ProcessedIDs)
	assert.False(t, stats.Monitor.Active)
}

func TestCloseBeforeOpen(t *testing.T) {
	a := testAgent(t)
	require.NoError(t, a.Close())
}

func TestCheckMentionsBeforeOpen(t *testing.T) {
	a := testAgent(t)

	records, err := a.CheckMentions(context.Background())
	require.NoError(t, err, "an unreachable browser degrades to an empty pass")
	assert.Empty(t, records)
}

func TestMonitorSourceBeforeOpen(t *testing.T) {
	a := testAgent(t)

	// The monitor goroutine scrapes through this wrapper; a panic here
	// would take the whole process down.
	records, err := flightSource{a}.ScrapeMentions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCheckChatBeforeOpen(t *testing.T) {
	a := testAgent(t)

	messages, err := a.CheckChat(context.Background())
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestHandleMentionWithoutReplier(t *testing.T) {
	a := testAgent(t)

	rec := scraper.Record{ID: "1", Text: "hey whats the plan?"}
	assert.NoError(t, a.handleMention(context.Background(), rec))
}

func TestHandleMentionReplierDeclines(t *testing.T) {
	called := false
	a := testAgent(t, WithReplier(llm.ReplierFunc(
		func(ctx context.Context, text, author string) (string, error) {
			called = true
			return "", nil
		})))

	rec := scraper.Record{ID: "2", Text: "wen moon"}
	assert.NoError(t, a.handleMention(context.Background(), rec))
	assert.True(t, called)
}

func TestHandleMentionReplierError(t *testing.T) {
	boom := errors.New("model unavailable")
	a := testAgent(t, WithReplier(llm.ReplierFunc(
		func(ctx context.Context, text, author string) (string, error) {
			return "", boom
		})))

	rec := scraper.Record{ID: "3", Text: "any thoughts on this?"}
	err := a.handleMention(context.Background(), rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestSubscribeReturnsCancel(t *testing.T) {
	a := testAgent(t)

	cancel := a.Subscribe(func(ctx context.Context, rec scraper.Record) error { return nil })
	require.NotNil(t, cancel)
	cancel()
	cancel() // double cancel is harmless
}

func TestOpenRespectsCancelledContext(t *testing.T) {
	a := testAgent(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Open(ctx), context.Canceled)
}
