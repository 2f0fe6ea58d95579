package config

// DefaultTimezone is the reference timezone for all day-granularity logic.
const DefaultTimezone = "America/Sao_Paulo"

// DefaultCron runs the escalation sweep every day at 09:00.
const DefaultCron = "0 9 * * *"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: "data/amostras.db",
		Timezone: DefaultTimezone,
		HTTP: HTTPConfig{
			Port: 8080,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Escalation: EscalationConfig{
			Cron: DefaultCron,
		},
		Transport: TransportConfig{
			BaseURL:       "http://localhost:21465",
			Session:       "gerenciador-amostras",
			RatePerSecond: 1,
			Burst:         5,
			QueueSize:     256,
		},
		Defaults: SettingsDefaults{
			OverdueDays:             7,
			CorrectionWindowSeconds: 300,
			ReminderTier1Days:       8,
			ReminderTier2Days:       14,
		},
	}
}
