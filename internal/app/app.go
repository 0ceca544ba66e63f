// Package app wires the client together: configuration from the
// environment, the logging router, the page fetcher and its cache, the
// server transport, the session loop and the terminal program.
package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/DedFishy/WikiSpeedrun/internal/session"
	"github.com/DedFishy/WikiSpeedrun/internal/transport"
	"github.com/DedFishy/WikiSpeedrun/internal/ui"
	"github.com/DedFishy/WikiSpeedrun/internal/wiki"
	"github.com/DedFishy/WikiSpeedrun/logging"
	loggingSinks "github.com/DedFishy/WikiSpeedrun/logging/sinks"
)

const defaultServerURL = "ws://localhost:5936/ws"

type Config struct {
	ServerURL   string
	WikiBaseURL string
	CachePath   string
	Logging     logging.Config
}

// ConfigFromEnv loads .env when present and reads the WIKISPEEDRUN_*
// variables over the defaults.
func ConfigFromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{
		ServerURL: defaultServerURL,
		Logging:   logging.DefaultConfig(),
	}
	if raw := os.Getenv("WIKISPEEDRUN_SERVER_URL"); raw != "" {
		cfg.ServerURL = raw
	}
	if raw := os.Getenv("WIKISPEEDRUN_WIKI_BASE"); raw != "" {
		cfg.WikiBaseURL = raw
	}
	if raw := os.Getenv("WIKISPEEDRUN_CACHE_PATH"); raw != "" {
		cfg.CachePath = raw
	}
	if raw := os.Getenv("WIKISPEEDRUN_LOG_SINKS"); raw != "" {
		cfg.Logging.EnabledSinks = splitList(raw)
	}
	if raw := os.Getenv("WIKISPEEDRUN_LOG_JSON_PATH"); raw != "" {
		cfg.Logging.JSONPath = raw
	}
	if raw := os.Getenv("WIKISPEEDRUN_LOG_MIN_SEVERITY"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.Logging.MinimumSeverity = logging.Severity(value)
		}
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func Run(ctx context.Context, cfg Config) error {
	router, logFile, err := buildRouter(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		router.Close(closeCtx)
		if logFile != nil {
			logFile.Close()
		}
	}()

	clientID := uuid.NewString()
	pub := logging.WithFields(router, map[string]any{"client_id": clientID})

	cache, closeCache, err := buildCache(cfg.CachePath, pub)
	if err != nil {
		return err
	}
	if closeCache != nil {
		defer closeCache()
	}

	fetcher := wiki.NewClient(wiki.Config{
		BaseURL:   cfg.WikiBaseURL,
		Cache:     cache,
		Publisher: pub,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn := transport.Dial(runCtx, cfg.ServerURL, pub)
	defer conn.Close()

	display := ui.NewDisplay(64)
	sess := session.New(session.Config{
		Transport: conn,
		Fetcher:   fetcher,
		Display:   display,
		Publisher: pub,
	})

	sessionDone := make(chan struct{})
	go func() {
		defer close(sessionDone)
		sess.Run(runCtx)
	}()

	program := tea.NewProgram(ui.New(sess, display.Updates()), tea.WithContext(runCtx), tea.WithAltScreen())
	_, runErr := program.Run()

	cancel()
	display.Drain()
	<-sessionDone
	display.Close()

	if runErr != nil && runCtx.Err() == nil {
		return fmt.Errorf("terminal program failed: %w", runErr)
	}
	return nil
}

func buildRouter(cfg logging.Config) (*logging.Router, *os.File, error) {
	var sinks []logging.NamedSink
	var logFile *os.File
	if cfg.HasSink("console") {
		// Stdout belongs to the terminal program; console logs go to stderr.
		sinks = append(sinks, logging.NamedSink{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stderr)})
	}
	if cfg.HasSink("json") {
		path := cfg.JSONPath
		if path == "" {
			path = "wikispeedrun.log"
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		logFile = file
		sinks = append(sinks, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSONSink(file)})
	}
	return logging.NewRouter(nil, cfg, sinks), logFile, nil
}

// buildCache prefers the sqlite store; a bad path degrades to the in-memory
// cache rather than failing startup.
func buildCache(path string, pub logging.Publisher) (wiki.Cache, func() error, error) {
	if path == "" {
		return wiki.NewMemoryCache(), nil, nil
	}
	store, err := wiki.OpenStore(path)
	if err != nil {
		pub.Publish(context.Background(), logging.Event{
			Type:     "page_store_unavailable",
			Actor:    logging.EntityRef{Kind: logging.EntityKindClient},
			Severity: logging.SeverityWarn,
			Category: logging.CategorySystem,
			Payload:  map[string]any{"path": path, "error": err.Error()},
		})
		return wiki.NewMemoryCache(), nil, nil
	}
	return store, store.Close, nil
}
