package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Timezone != DefaultTimezone {
		t.Errorf("expected default timezone %q, got %q", DefaultTimezone, cfg.Timezone)
	}
	if cfg.Escalation.Cron != "0 9 * * *" {
		t.Errorf("expected default cron %q, got %q", "0 9 * * *", cfg.Escalation.Cron)
	}
	if cfg.Defaults.OverdueDays != 7 {
		t.Errorf("expected default overdue_days 7, got %d", cfg.Defaults.OverdueDays)
	}
	if cfg.Defaults.CorrectionWindowSeconds != 300 {
		t.Errorf("expected default correction window 300, got %d", cfg.Defaults.CorrectionWindowSeconds)
	}
	if cfg.Defaults.ReminderTier1Days != 8 || cfg.Defaults.ReminderTier2Days != 14 {
		t.Errorf("unexpected tiers %d/%d", cfg.Defaults.ReminderTier1Days, cfg.Defaults.ReminderTier2Days)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "amostras.yml")

	original := DefaultConfig()
	original.Database = "other.db"
	original.HTTP.Port = 9090
	original.Transport.Session = "vendas"
	original.Defaults.OversightContact = "5543999990000@c.us"
	original.Defaults.OverdueDays = 10

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Database != original.Database {
		t.Errorf("database: got %q, want %q", loaded.Database, original.Database)
	}
	if loaded.HTTP.Port != original.HTTP.Port {
		t.Errorf("http.port: got %d, want %d", loaded.HTTP.Port, original.HTTP.Port)
	}
	if loaded.Transport.Session != original.Transport.Session {
		t.Errorf("transport.session: got %q, want %q", loaded.Transport.Session, original.Transport.Session)
	}
	if loaded.Defaults.OversightContact != original.Defaults.OversightContact {
		t.Errorf("oversight_contact: got %q", loaded.Defaults.OversightContact)
	}
	if loaded.Defaults.OverdueDays != 10 {
		t.Errorf("overdue_days: got %d, want 10", loaded.Defaults.OverdueDays)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load of missing file should not error, got: %v", err)
	}
	if cfg.Database != DefaultConfig().Database {
		t.Errorf("expected default database, got %q", cfg.Database)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "amostras.yml")
	if err := os.WriteFile(path, []byte("transport:\n  token: from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AMOSTRAS_TRANSPORT__TOKEN", "from-env")
	t.Setenv("AMOSTRAS_TIMEZONE", "UTC")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport.Token != "from-env" {
		t.Errorf("token: got %q, want from-env", cfg.Transport.Token)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("timezone: got %q, want UTC", cfg.Timezone)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing database", func(c *Config) { c.Database = "" }, true},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, true},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, true},
		{"bad cron", func(c *Config) { c.Escalation.Cron = "every day" }, true},
		{"missing session", func(c *Config) { c.Transport.Session = "" }, true},
		{"zero overdue", func(c *Config) { c.Defaults.OverdueDays = 0 }, true},
		{"tiers inverted", func(c *Config) { c.Defaults.ReminderTier1Days = 20 }, true},
		{"zero window", func(c *Config) { c.Defaults.CorrectionWindowSeconds = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLocationAndCron(t *testing.T) {
	cfg := DefaultConfig()
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != DefaultTimezone {
		t.Errorf("location = %s", loc)
	}

	cfg.Escalation.Cron = ""
	if cfg.CronExpr() != DefaultCron {
		t.Errorf("CronExpr fallback = %q", cfg.CronExpr())
	}
}

func TestWizardValidators(t *testing.T) {
	if err := validateDigits("5543999990000"); err != nil {
		t.Errorf("digits rejected: %v", err)
	}
	if err := validateDigits("55 43"); err == nil {
		t.Error("expected error for non-digit input")
	}
	if err := validatePositiveInt("0"); err == nil {
		t.Error("expected error for zero")
	}
	if err := validatePositiveInt("7"); err != nil {
		t.Errorf("7 rejected: %v", err)
	}
}
