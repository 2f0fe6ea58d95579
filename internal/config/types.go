package config

// Config is the top-level amostras configuration, corresponding to amostras.yml.
type Config struct {
	Database   string           `yaml:"database" koanf:"database"`
	Timezone   string           `yaml:"timezone" koanf:"timezone"`
	HTTP       HTTPConfig       `yaml:"http" koanf:"http"`
	Log        LogConfig        `yaml:"log" koanf:"log"`
	Escalation EscalationConfig `yaml:"escalation" koanf:"escalation"`
	Transport  TransportConfig  `yaml:"transport" koanf:"transport"`
	Defaults   SettingsDefaults `yaml:"defaults" koanf:"defaults"`
}

// HTTPConfig controls the webhook/metrics listener.
type HTTPConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

// EscalationConfig holds the daily sweep schedule, a cron expression
// evaluated in Config.Timezone.
type EscalationConfig struct {
	Cron string `yaml:"cron" koanf:"cron"`
}

// TransportConfig points at the WPPConnect server used as the chat channel.
type TransportConfig struct {
	BaseURL       string  `yaml:"base_url" koanf:"base_url"`
	Session       string  `yaml:"session" koanf:"session"`
	Token         string  `yaml:"token" koanf:"token"`
	WebhookSecret string  `yaml:"webhook_secret" koanf:"webhook_secret"`
	RatePerSecond float64 `yaml:"rate_per_second" koanf:"rate_per_second"`
	Burst         int     `yaml:"burst" koanf:"burst"`
	QueueSize     int     `yaml:"queue_size" koanf:"queue_size"`
}

// SettingsDefaults seed the runtime settings table on first start. Once
// seeded, the database copy wins; edit it with `amostras settings set`.
type SettingsDefaults struct {
	OversightContact        string `yaml:"oversight_contact" koanf:"oversight_contact"`
	OverdueDays             int    `yaml:"overdue_days" koanf:"overdue_days"`
	CorrectionWindowSeconds int    `yaml:"correction_window_seconds" koanf:"correction_window_seconds"`
	ReminderTier1Days       int    `yaml:"reminder_tier1_days" koanf:"reminder_tier1_days"`
	ReminderTier2Days       int    `yaml:"reminder_tier2_days" koanf:"reminder_tier2_days"`
}
