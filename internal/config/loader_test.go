package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eventum.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoaderAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "backend:\n  base_url: http://localhost:4000\n")
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	cfg := l.Config()

	if cfg.Schedule.ConflictWindowMinutes != 120 {
		t.Errorf("conflict window = %d, want default 120", cfg.Schedule.ConflictWindowMinutes)
	}
	if cfg.Form.ClockThrottleMs != 50 {
		t.Errorf("clock throttle = %d, want default 50", cfg.Form.ClockThrottleMs)
	}
	if cfg.Schedule.RefreshCron != "@every 5m" {
		t.Errorf("refresh cron = %q, want default", cfg.Schedule.RefreshCron)
	}
	if cfg.Form.QueueDepth != 256 {
		t.Errorf("queue depth = %d, want default 256", cfg.Form.QueueDepth)
	}
}

func TestValidateAccumulatesErrors(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Backend.BaseURL = "" // required
	cfg.Schedule.RefreshCron = "not a cron spec"
	cfg.Form.SubmitWorkers = 0

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"backend.base_url", "refresh_cron", "submit_workers"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error should mention %s, got: %s", want, msg)
		}
	}
}

func TestValidateGoodConfig(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Backend.BaseURL = "https://eventos.uni.edu/api"
	if err := Validate(cfg); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsRelativeURL(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Backend.BaseURL = "/api/eventos"
	if err := Validate(cfg); err == nil {
		t.Error("relative base_url should fail validation")
	}
}
