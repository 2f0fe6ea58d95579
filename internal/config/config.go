package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/adhocore/gronx"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides. Nested keys
// use a double underscore: AMOSTRAS_TRANSPORT__TOKEN -> transport.token.
const EnvPrefix = "AMOSTRAS_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (AMOSTRAS_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps AMOSTRAS_HTTP__PORT to http.port.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http.port %d", c.HTTP.Port)
	}
	if c.Escalation.Cron != "" && !gronx.IsValid(c.Escalation.Cron) {
		return fmt.Errorf("invalid escalation.cron %q", c.Escalation.Cron)
	}
	if c.Transport.BaseURL == "" {
		return fmt.Errorf("transport.base_url is required")
	}
	if c.Transport.Session == "" {
		return fmt.Errorf("transport.session is required")
	}
	if c.Transport.RatePerSecond < 0 {
		return fmt.Errorf("transport.rate_per_second must be non-negative")
	}

	d := c.Defaults
	if d.OverdueDays <= 0 {
		return fmt.Errorf("defaults.overdue_days must be positive")
	}
	if d.CorrectionWindowSeconds <= 0 {
		return fmt.Errorf("defaults.correction_window_seconds must be positive")
	}
	if d.ReminderTier1Days <= 0 || d.ReminderTier2Days <= 0 {
		return fmt.Errorf("defaults reminder tiers must be positive")
	}
	if d.ReminderTier1Days >= d.ReminderTier2Days {
		return fmt.Errorf("defaults.reminder_tier1_days must be lower than reminder_tier2_days")
	}

	return nil
}

// Location resolves the configured reference timezone.
func (c *Config) Location() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// CronExpr returns the escalation schedule, falling back to DefaultCron.
func (c *Config) CronExpr() string {
	if c.Escalation.Cron == "" {
		return DefaultCron
	}
	return c.Escalation.Cron
}
