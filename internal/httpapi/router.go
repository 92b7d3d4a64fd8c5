// Package httpapi exposes the orchestrator over HTTP: the session event
// stream, the tool-result receiver, and the service endpoints.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/metrics"
	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/rendezvous"
	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/runner"
	"github.com/benreeve-ow/isaac-word-agent-sub001/tools"
)

const (
	DefaultMaxRequestBodyBytes = 4 << 20
	DefaultKeepAliveInterval   = 15 * time.Second
	DefaultResultRatePerSec    = 50
	DefaultResultBurst         = 100

	sessionIDHeader = "X-Session-Id"
)

type Config struct {
	KeepAliveInterval   time.Duration // 0 disables keepalive comments
	ResultRatePerSec    float64
	ResultBurst         int
	MaxRequestBodyBytes int64
}

func DefaultConfig() Config {
	return Config{
		KeepAliveInterval:   DefaultKeepAliveInterval,
		ResultRatePerSec:    DefaultResultRatePerSec,
		ResultBurst:         DefaultResultBurst,
		MaxRequestBodyBytes: DefaultMaxRequestBodyBytes,
	}
}

func normalizeConfig(input Config) Config {
	defaults := DefaultConfig()
	if input.KeepAliveInterval < 0 {
		input.KeepAliveInterval = 0
	}
	if input.ResultRatePerSec <= 0 {
		input.ResultRatePerSec = defaults.ResultRatePerSec
	}
	if input.ResultBurst <= 0 {
		input.ResultBurst = defaults.ResultBurst
	}
	if input.MaxRequestBodyBytes <= 0 {
		input.MaxRequestBodyBytes = defaults.MaxRequestBodyBytes
	}
	return input
}

type handlers struct {
	runner *runner.Runner
	store  *rendezvous.Store
	tools  []tools.ToolDefinition
	cfg    Config
	logger *slog.Logger
}

// NewRouter wires every endpoint. The runner's store is the one the receiver
// deposits into.
func NewRouter(run *runner.Runner, cfg Config, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{
		runner: run,
		store:  run.Store,
		tools:  run.Tools,
		cfg:    normalizeConfig(cfg),
		logger: logger,
	}

	limitResults := rateLimitMiddleware(newIPRateLimiter(h.cfg.ResultRatePerSec, h.cfg.ResultBurst))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/agent/stream", h.handleStream)
	mux.Handle("POST /api/agent/tool-result", limitResults(http.HandlerFunc(h.handleToolResult)))
	mux.HandleFunc("GET /api/tools", h.handleTools)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	return chain(requestLoggingMiddleware(logger))(mux)
}
