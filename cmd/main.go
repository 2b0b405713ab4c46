package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/toplanma/internal/adapters/http/api"
	app "github.com/okian/toplanma/internal/app"
	"github.com/okian/toplanma/internal/config"
	"github.com/okian/toplanma/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one collection and returns the process exit code.
func run(ctx context.Context, stderr io.Writer) int {
	dotenvErr := config.LoadDotEnv(".env")

	if err := logger.Init(); err != nil {
		_, _ = fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "failed to load config:", err)
		return 1
	}

	if cfg.LogFormat != "" && cfg.LogFormat != "text" {
		if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
			_, _ = fmt.Fprintln(stderr, "failed to initialize logging:", err)
			return 1
		}
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if dotenvErr != nil {
		log.Warn(ctx, "ignoring unreadable .env", logger.Error(dotenvErr))
	}

	svc, err := app.NewFromConfig(cfg, app.WithLogger(log.Named("service")))
	if err != nil {
		log.Error(ctx, "failed to build collector", logger.Error(err))
		return 1
	}

	if cfg.MetricsAddr != "" {
		srv := newOpsServer(cfg.MetricsAddr, svc)
		go func() {
			log.Info(ctx, "starting ops server", logger.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "ops server failed", logger.Error(fmt.Errorf("%w: %w", api.ErrServe, err)))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error(ctx, "ops server shutdown failed", logger.Error(err))
			}
		}()
	}

	if err := svc.Run(ctx); err != nil {
		log.Error(ctx, "collection aborted", logger.String("run_id", svc.RunID()), logger.Error(err))
		return 1
	}
	return 0
}

func newOpsServer(addr string, stats api.StatsProvider) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(stats).Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
