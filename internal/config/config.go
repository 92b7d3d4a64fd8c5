// Package config loads server settings from defaults, an optional YAML file,
// and AGT_* environment variables, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/logger"
)

const (
	defaultModel             = "claude-3-7-sonnet-latest"
	defaultMaxTokens         = 4096
	defaultPollInterval      = 100 * time.Millisecond
	defaultPollCeiling       = 30 * time.Second
	defaultIterationCeiling  = 100
	defaultResultRetention   = 5 * time.Minute
	defaultSweepInterval     = 5 * time.Minute
	defaultKeepAliveInterval = 15 * time.Second
	defaultListenAddr        = "127.0.0.1:8787"
	defaultResultRate        = 50
	defaultResultBurst       = 100
	defaultShutdownTimeout   = 10 * time.Second
)

// Config is the full set of recognized knobs.
type Config struct {
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	Model           string `yaml:"model"`
	MaxTokens       int64  `yaml:"max_tokens"`

	PollInterval     time.Duration `yaml:"poll_interval"`
	PollCeiling      time.Duration `yaml:"poll_ceiling"`
	IterationCeiling int           `yaml:"iteration_ceiling"`
	ResultRetention  time.Duration `yaml:"result_retention"`
	SweepInterval    time.Duration `yaml:"sweep_interval"`

	KeepAliveInterval time.Duration `yaml:"keepalive_interval"`
	ListenAddr        string        `yaml:"listen_addr"`
	ResultRatePerSec  float64       `yaml:"result_rate_per_sec"`
	ResultBurst       int           `yaml:"result_burst"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`

	LogFormat string `yaml:"log_format"`
	LogLevel  string `yaml:"log_level"`
}

// Default returns the documented defaults. The API key is left empty.
func Default() Config {
	return Config{
		Model:             defaultModel,
		MaxTokens:         defaultMaxTokens,
		PollInterval:      defaultPollInterval,
		PollCeiling:       defaultPollCeiling,
		IterationCeiling:  defaultIterationCeiling,
		ResultRetention:   defaultResultRetention,
		SweepInterval:     defaultSweepInterval,
		KeepAliveInterval: defaultKeepAliveInterval,
		ListenAddr:        defaultListenAddr,
		ResultRatePerSec:  defaultResultRate,
		ResultBurst:       defaultResultBurst,
		ShutdownTimeout:   defaultShutdownTimeout,
		LogFormat:         "text",
		LogLevel:          "info",
	}
}

// Load builds a Config from defaults, then path (if non-empty), then the
// environment, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.AnthropicAPIKey = v
	}
	if v := os.Getenv("AGT_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("AGT_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("AGT_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("AGT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"AGT_POLL_INTERVAL", &c.PollInterval},
		{"AGT_POLL_CEILING", &c.PollCeiling},
		{"AGT_RESULT_RETENTION", &c.ResultRetention},
		{"AGT_SWEEP_INTERVAL", &c.SweepInterval},
		{"AGT_KEEPALIVE_INTERVAL", &c.KeepAliveInterval},
		{"AGT_SHUTDOWN_TIMEOUT", &c.ShutdownTimeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.name)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, v, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("AGT_ITERATION_CEILING"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid AGT_ITERATION_CEILING %q: %w", v, err)
		}
		c.IterationCeiling = n
	}
	if v := os.Getenv("AGT_MAX_TOKENS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid AGT_MAX_TOKENS %q: %w", v, err)
		}
		c.MaxTokens = n
	}
	if v := os.Getenv("AGT_RESULT_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid AGT_RESULT_RATE %q: %w", v, err)
		}
		c.ResultRatePerSec = f
	}
	if v := os.Getenv("AGT_RESULT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid AGT_RESULT_BURST %q: %w", v, err)
		}
		c.ResultBurst = n
	}
	return nil
}

// Validate rejects values the server cannot run with. A missing API key is
// not an error here; RequireAPIKey checks it where a client is built.
func (c Config) Validate() error {
	var errs []error
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll_interval must be > 0"))
	}
	if c.PollCeiling <= 0 {
		errs = append(errs, errors.New("poll_ceiling must be > 0"))
	}
	if c.PollInterval > c.PollCeiling && c.PollCeiling > 0 {
		errs = append(errs, errors.New("poll_interval must not exceed poll_ceiling"))
	}
	if c.IterationCeiling <= 0 {
		errs = append(errs, errors.New("iteration_ceiling must be > 0"))
	}
	if c.ResultRetention <= 0 {
		errs = append(errs, errors.New("result_retention must be > 0"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("sweep_interval must be > 0"))
	}
	if c.KeepAliveInterval < 0 {
		errs = append(errs, errors.New("keepalive_interval must be >= 0"))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, errors.New("max_tokens must be > 0"))
	}
	if c.ResultRatePerSec <= 0 || c.ResultBurst <= 0 {
		errs = append(errs, errors.New("result_rate_per_sec and result_burst must be > 0"))
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		errs = append(errs, errors.New("listen_addr is required"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RequireAPIKey reports an error when no model credential is configured.
func (c Config) RequireAPIKey() error {
	if strings.TrimSpace(c.AnthropicAPIKey) == "" {
		return errors.New("missing ANTHROPIC_API_KEY; export it or set anthropic_api_key in the config file")
	}
	return nil
}
