package config

// Config is the top-level YAML structure.
type Config struct {
	Backend  BackendConf  `yaml:"backend"`
	Schedule ScheduleConf `yaml:"schedule"`
	Form     FormConf     `yaml:"form"`
	Drafts   DraftsConf   `yaml:"drafts"`
}

// BackendConf locates the external event repository.
type BackendConf struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ScheduleConf tunes conflict detection and snapshot refresh.
type ScheduleConf struct {
	ConflictWindowMinutes int    `yaml:"conflict_window_minutes"`
	RefreshCron           string `yaml:"refresh_cron"`
	BlockOnConflict       bool   `yaml:"block_on_conflict"`
}

// FormConf tunes the form-session layer and the submission pipeline.
type FormConf struct {
	ClockThrottleMs int `yaml:"clock_throttle_ms"`
	SubmitWorkers   int `yaml:"submit_workers"`
	QueueDepth      int `yaml:"queue_depth"`
	SubmitTimeoutMs int `yaml:"submit_timeout_ms"`
}

// DraftsConf configures on-disk draft persistence.
type DraftsConf struct {
	Dir string `yaml:"dir"`
}
