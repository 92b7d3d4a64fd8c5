package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/config"
)

// clearEnv unsets every variable Load reads so the host env cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ANTHROPIC_API_KEY", "AGT_MODEL", "AGT_LISTEN_ADDR", "AGT_LOG_FORMAT", "AGT_LOG_LEVEL",
		"AGT_POLL_INTERVAL", "AGT_POLL_CEILING", "AGT_RESULT_RETENTION", "AGT_SWEEP_INTERVAL",
		"AGT_KEEPALIVE_INTERVAL", "AGT_SHUTDOWN_TIMEOUT", "AGT_ITERATION_CEILING",
		"AGT_MAX_TOKENS", "AGT_RESULT_RATE", "AGT_RESULT_BURST",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval != 100*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.PollCeiling != 30*time.Second {
		t.Errorf("PollCeiling = %v", cfg.PollCeiling)
	}
	if cfg.IterationCeiling != 100 {
		t.Errorf("IterationCeiling = %d", cfg.IterationCeiling)
	}
	if cfg.ResultRetention != 5*time.Minute || cfg.SweepInterval != 5*time.Minute {
		t.Errorf("retention/sweep = %v/%v", cfg.ResultRetention, cfg.SweepInterval)
	}
	if err := cfg.RequireAPIKey(); err == nil {
		t.Error("expected missing API key error")
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "wordagent.yaml")
	body := `
anthropic_api_key: file-key
poll_interval: 250ms
poll_ceiling: 10s
iteration_ceiling: 12
log_format: json
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	t.Setenv("AGT_ITERATION_CEILING", "7")
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval != 250*time.Millisecond || cfg.PollCeiling != 10*time.Second {
		t.Errorf("file durations not applied: %v %v", cfg.PollInterval, cfg.PollCeiling)
	}
	if cfg.IterationCeiling != 7 {
		t.Errorf("env should override file: IterationCeiling = %d", cfg.IterationCeiling)
	}
	if cfg.AnthropicAPIKey != "env-key" {
		t.Errorf("AnthropicAPIKey = %q", cfg.AnthropicAPIKey)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q", cfg.LogFormat)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		t.Errorf("RequireAPIKey: %v", err)
	}
}

func TestLoad_UnknownFileKey_Error(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("poll_intervall: 1s\n"), 0o644); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoad_InvalidEnv_Error(t *testing.T) {
	cases := map[string]string{
		"AGT_POLL_CEILING":      "soon",
		"AGT_ITERATION_CEILING": "abc",
		"AGT_MAX_TOKENS":        "lots",
		"AGT_RESULT_RATE":       "fast",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(k, v)
			_, err := config.Load("")
			if err == nil || !strings.Contains(err.Error(), k) {
				t.Fatalf("expected error naming %s, got %v", k, err)
			}
		})
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.IterationCeiling = 0
	cfg.PollInterval = time.Minute
	cfg.LogLevel = "loud"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"iteration_ceiling", "poll_interval must not exceed", "log level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}
