package config

// rawConfig — корневой документ.
type rawConfig struct {
	TickSeconds int        `yaml:"tick_seconds"`
	NumWorkers  int        `yaml:"num_workers"`
	Inputs      []rawInput `yaml:"inputs"`
	Jobs        []rawJob   `yaml:"jobs"`
}

type rawInput struct {
	ID            string `yaml:"id"`
	Type          string `yaml:"type"`
	Items         []any  `yaml:"items"`
	URL           string `yaml:"url"`
	Queue         string `yaml:"queue"`
	PrefetchCount int    `yaml:"prefetch_count"`
}

type rawSchedule struct {
	Kind         string `yaml:"kind"`
	Cron         string `yaml:"cron"`
	EverySeconds int    `yaml:"every_seconds"`
	RunAt        string `yaml:"run_at"` // RFC3339
}

type rawTrigger struct {
	Kind    string `yaml:"kind"`
	InputID string `yaml:"input_id"`
}

type rawJob struct {
	ID       string      `yaml:"id"`
	Target   string      `yaml:"target"`
	Schedule rawSchedule `yaml:"schedule"`
	Trigger  *rawTrigger `yaml:"trigger"`

	Args   []any          `yaml:"args"`
	Kwargs map[string]any `yaml:"kwargs"`

	// Pointers distinguish "absent from YAML" (nil, apply default) from an
	// explicit zero (e.g. max_retries: 0 means "never retry"), the same
	// way Enabled already distinguishes unset from false.
	BatchSize         *int  `yaml:"batch_size"`
	MaxRetries        *int  `yaml:"max_retries"`
	RetryDelaySeconds *int  `yaml:"retry_delay_seconds"`
	TimeoutSeconds    *int  `yaml:"timeout_seconds"`
	Enabled           *bool `yaml:"enabled"`
}
