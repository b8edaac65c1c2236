package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/johanstenius/mocktail-sub000/internal/storage"
	"github.com/johanstenius/mocktail-sub000/pkg/bucket"
	"github.com/johanstenius/mocktail-sub000/pkg/config"
	"github.com/johanstenius/mocktail-sub000/pkg/engine"
	"github.com/johanstenius/mocktail-sub000/pkg/logging"
	"github.com/johanstenius/mocktail-sub000/pkg/notify"
	"github.com/johanstenius/mocktail-sub000/pkg/ratelimit"
	"github.com/johanstenius/mocktail-sub000/pkg/requestlog"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		logLevel   string
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if logFormat != "" {
				cfg.Logging.Format = logFormat
			}

			logger, cleanup, err := buildLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer cleanup()

			return runServer(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the configuration file")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "log format: console, text, json")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(path)
}

// buildLogger creates the process logger. When a log file is configured,
// console output is paired with JSON lines written to the file.
func buildLogger(cfg config.LoggingConfig) (*slog.Logger, func(), error) {
	level := logging.ParseLevel(cfg.Level)
	format := logging.ParseFormat(cfg.Format)

	if cfg.File == "" {
		return logging.New(logging.Config{Level: level, Format: format}), func() {}, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	console := logging.New(logging.Config{Level: level, Format: format})
	file := logging.New(logging.Config{Level: level, Format: logging.FormatJSON, Output: f})
	logger := slog.New(logging.Fanout(console.Handler(), file.Handler()))
	return logger, func() { _ = f.Close() }, nil
}

func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store := storage.NewInMemoryProjectStore()
	buckets := bucket.NewStore()

	loader := engine.NewConfigLoader(store, buckets)
	loader.SetLogger(logger)
	if err := loader.Load(cfg); err != nil {
		return err
	}

	debouncer := notify.NewDebouncer(notify.SinkFunc(func(event notify.Event) {
		logger.Debug("stats changed",
			"scope", string(event.Scope),
			"scopeId", event.ScopeID)
	}), time.Duration(cfg.Server.NotifyDebounceMs)*time.Millisecond)
	defer debouncer.Close()

	e := engine.New(store, buckets)
	e.SetLogger(logger)
	e.SetLogSink(requestlog.NewMemoryStore(cfg.Server.RequestLogCapacity))
	e.SetNotifier(debouncer)

	opts := []engine.ServerOption{engine.WithLogger(logger)}
	if cfg.Quota.Limit > 0 {
		opts = append(opts, engine.WithLimiter(ratelimit.NewLimiter(ratelimit.Quota{
			Limit:  cfg.Quota.Limit,
			Window: cfg.Quota.Window(),
		})))
	}
	if cfg.Server.ReadTimeoutMs > 0 || cfg.Server.WriteTimeoutMs > 0 {
		opts = append(opts, engine.WithTimeouts(
			time.Duration(cfg.Server.ReadTimeoutMs)*time.Millisecond,
			time.Duration(cfg.Server.WriteTimeoutMs)*time.Millisecond,
		))
	}

	srv := engine.NewServer(cfg.Server.Addr, e, opts...)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting mocktail",
		"addr", cfg.Server.Addr,
		"projects", len(cfg.Projects))
	return srv.Run(runCtx)
}
