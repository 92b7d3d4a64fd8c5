package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/config"
	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/httpapi"
	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/logger"
	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/provider"
	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/rendezvous"
	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/runner"
	"github.com/benreeve-ow/isaac-word-agent-sub001/tools"
)

// runServe loads configuration, starts the sweep and the HTTP server, and
// blocks until ctx ends or a shutdown signal arrives.
func runServe(ctx context.Context, configPath string, logOut io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	level, _ := logger.ParseLevel(cfg.LogLevel)
	log := logger.New(logOut, cfg.LogFormat == "json", level)
	slog.SetDefault(log)

	log.Info("starting wordagent",
		"version", version,
		"commit", commit,
		"listen", cfg.ListenAddr,
		"model", cfg.Model,
		"poll_ceiling", cfg.PollCeiling,
		"iteration_ceiling", cfg.IterationCeiling,
	)

	store := rendezvous.New(rendezvous.Config{
		Retention:     cfg.ResultRetention,
		SweepInterval: cfg.SweepInterval,
		PollInterval:  cfg.PollInterval,
	}, log)
	store.Start()
	defer store.Stop()

	run := runner.New(
		provider.NewAnthropicClient(cfg.AnthropicAPIKey),
		tools.Registry(),
		store,
		runner.Config{
			Model:            anthropic.Model(cfg.Model),
			MaxTokens:        cfg.MaxTokens,
			PollCeiling:      cfg.PollCeiling,
			IterationCeiling: cfg.IterationCeiling,
		},
		log,
	)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := newHTTPServer(ctx, httpapi.NewRouter(run, httpapi.Config{
		KeepAliveInterval: cfg.KeepAliveInterval,
		ResultRatePerSec:  cfg.ResultRatePerSec,
		ResultBurst:       cfg.ResultBurst,
	}, log))

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		// Open event streams outlived the timeout.
		log.Warn("graceful shutdown incomplete, closing connections", "error", err)
		_ = srv.Close()
	}
	return nil
}

// newHTTPServer derives every request context from ctx, so open sessions end
// their waits as soon as shutdown begins.
func newHTTPServer(ctx context.Context, h http.Handler) *http.Server {
	return &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}
