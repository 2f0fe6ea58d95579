package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SimpleDioney/Amostras/internal/audit"
	"github.com/SimpleDioney/Amostras/internal/config"
	"github.com/SimpleDioney/Amostras/internal/db"
	"github.com/SimpleDioney/Amostras/internal/logger"
	"github.com/SimpleDioney/Amostras/internal/settings"
)

// loadConfig loads and validates the config and sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `amostras init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger.Init(level, cfg.Log.Format)
	return cfg, nil
}

// openDatabase opens the configured database, creating its directory, and
// seeds the runtime settings from the config defaults.
func openDatabase(ctx context.Context, cfg *config.Config) (*db.DB, *settings.Store, error) {
	if dir := filepath.Dir(cfg.Database); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	store := settings.NewStore(database)
	d := cfg.Defaults
	if err := store.Seed(ctx, settings.Settings{
		OversightContact:        d.OversightContact,
		OverdueDays:             d.OverdueDays,
		CorrectionWindowSeconds: d.CorrectionWindowSeconds,
		ReminderTier1Days:       d.ReminderTier1Days,
		ReminderTier2Days:       d.ReminderTier2Days,
	}); err != nil {
		database.Close()
		return nil, nil, err
	}
	return database, store, nil
}

// recordCLI appends a CLI action to the audit trail, warning on failure.
func recordCLI(ctx context.Context, trail *audit.Store, entry audit.Entry) {
	entry.ActorType = audit.ActorCLI
	if entry.ActorID == "" {
		entry.ActorID = cliActor()
	}
	if err := trail.Log(ctx, entry); err != nil {
		logger.Warn("audit_log_failed", "action", string(entry.Action), "error", err)
	}
}

// cliActor names the operator running the CLI.
func cliActor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}
