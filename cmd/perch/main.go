// Package main runs the perch social agent: a browser-backed account
// automation service exposing its operations over a local HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/perchlabs/perch/pkg/agent"
	"github.com/perchlabs/perch/pkg/config"
	"github.com/perchlabs/perch/pkg/llm/openai"
	"github.com/perchlabs/perch/pkg/logging"
	"github.com/perchlabs/perch/pkg/memory"
	"github.com/perchlabs/perch/pkg/server"
)

const version = "0.1.0"

// CLIConfig holds command-line overrides layered on the environment config.
type CLIConfig struct {
	Addr        string
	Headless    bool
	Selectors   string
	Monitor     bool
	Interval    time.Duration
	ShowVersion bool
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("perch v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, cli); err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "perch: %v\n", err)
		os.Exit(1)
	}
	cancel()
}

func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.Addr, "addr", "", "HTTP listen address (overrides PERCH_ADDR)")
	flag.BoolVar(&cli.Headless, "headless", true, "run the browser headless")
	flag.StringVar(&cli.Selectors, "selectors", "", "path to selector table YAML (overrides PERCH_SELECTORS)")
	flag.BoolVar(&cli.Monitor, "monitor", false, "start mention monitoring on launch")
	flag.DurationVar(&cli.Interval, "interval", 0, "monitoring interval (overrides PERCH_POLL_INTERVAL)")
	flag.BoolVar(&cli.ShowVersion, "version", false, "show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Perch - Social Account Automation Agent\n\n")
		fmt.Fprintf(os.Stderr, "Usage: perch [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Serve the API and log in on first request\n")
		fmt.Fprintf(os.Stderr, "  perch\n\n")
		fmt.Fprintf(os.Stderr, "  # Log in, start monitoring mentions every 30s\n")
		fmt.Fprintf(os.Stderr, "  perch -monitor -interval 30s\n\n")
	}

	flag.Parse()
	return cli
}

func run(ctx context.Context, cli *CLIConfig) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	applyOverrides(cfg, cli)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New("perch")
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer log.Close()
	log.Infof("perch v%s starting, run %s", version, log.RunID())

	sel, err := config.LoadSelectors(cfg.SelectorPath)
	if err != nil {
		return fmt.Errorf("load selectors: %w", err)
	}
	log.Infof("selector table %s for %s", sel.Version, sel.Domain)

	opts := []agent.Option{}

	if cfg.OpenAIKey != "" {
		replier, err := openai.New(cfg.OpenAIKey, cfg.OpenAIBaseURL,
			openai.WithModel(cfg.Model), openai.WithPersona(cfg.Persona))
		if err != nil {
			return fmt.Errorf("initialize replier: %w", err)
		}
		opts = append(opts, agent.WithReplier(replier))
		log.Infof("auto-replies enabled, model %s", cfg.Model)
	} else {
		log.Infof("no OpenAI key configured, auto-replies disabled")
	}

	if cfg.DBPath != "" {
		store, err := memory.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open interaction store: %w", err)
		}
		defer store.Close()
		opts = append(opts, agent.WithMemory(store))
	}

	a := agent.New(cfg, sel, log, opts...)
	defer func() {
		if err := a.Close(); err != nil {
			log.Errorf("agent close failed: %v", err)
		}
	}()

	if cli.Monitor {
		if err := a.Open(ctx); err != nil {
			return fmt.Errorf("open agent: %w", err)
		}
		a.StartMonitoring(cfg.PollInterval)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(a, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("http shutdown failed: %v", err)
	}
	return nil
}

func applyOverrides(cfg *config.Config, cli *CLIConfig) {
	if cli.Addr != "" {
		cfg.Addr = cli.Addr
	}
	if cli.Selectors != "" {
		cfg.SelectorPath = cli.Selectors
	}
	if cli.Interval > 0 {
		cfg.PollInterval = cli.Interval
	}
	cfg.Headless = cli.Headless
}
