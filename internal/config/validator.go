package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks the config for required fields and well-formed values.
// All problems are reported at once.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Backend.BaseURL == "" {
		errs = append(errs, "backend.base_url is required")
	} else if u, err := url.Parse(cfg.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("backend.base_url %q is not an absolute URL", cfg.Backend.BaseURL))
	}
	if cfg.Backend.TimeoutMs < 0 {
		errs = append(errs, "backend.timeout_ms must not be negative")
	}

	if cfg.Schedule.ConflictWindowMinutes < 0 {
		errs = append(errs, "schedule.conflict_window_minutes must not be negative")
	}
	if spec := cfg.Schedule.RefreshCron; spec != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(spec); err != nil {
			errs = append(errs, fmt.Sprintf("schedule.refresh_cron %q: %v", spec, err))
		}
	}

	if cfg.Form.ClockThrottleMs < 0 {
		errs = append(errs, "form.clock_throttle_ms must not be negative")
	}
	if cfg.Form.SubmitWorkers < 1 {
		errs = append(errs, "form.submit_workers must be at least 1")
	}
	if cfg.Form.QueueDepth < 1 {
		errs = append(errs, "form.queue_depth must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
