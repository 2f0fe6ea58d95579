// Package settings stores the runtime key/value configuration that admins
// can edit without a redeploy. Values are read once into a cached snapshot;
// the cache is dropped only by Set or Reload.
package settings

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/SimpleDioney/Amostras/internal/db"
)

// Setting keys.
const (
	KeyOversightContact        = "oversight_contact"
	KeyOverdueDays             = "overdue_days"
	KeyCorrectionWindowSeconds = "correction_window_seconds"
	KeyReminderTier1Days       = "reminder_tier1_days"
	KeyReminderTier2Days       = "reminder_tier2_days"
)

// numericKeys must hold positive integers.
var numericKeys = map[string]bool{
	KeyOverdueDays:             true,
	KeyCorrectionWindowSeconds: true,
	KeyReminderTier1Days:       true,
	KeyReminderTier2Days:       true,
}

// Keys lists every recognised key in display order.
func Keys() []string {
	return []string{
		KeyOversightContact,
		KeyOverdueDays,
		KeyCorrectionWindowSeconds,
		KeyReminderTier1Days,
		KeyReminderTier2Days,
	}
}

// Settings is a typed snapshot of the settings table.
type Settings struct {
	OversightContact        string
	OverdueDays             int
	CorrectionWindowSeconds int
	ReminderTier1Days       int
	ReminderTier2Days       int
}

// CorrectionWindow is the grace period after a devolution is finalized.
func (s Settings) CorrectionWindow() time.Duration {
	return time.Duration(s.CorrectionWindowSeconds) * time.Second
}

// Values renders the snapshot as key/value strings.
func (s Settings) Values() map[string]string {
	return map[string]string{
		KeyOversightContact:        s.OversightContact,
		KeyOverdueDays:             strconv.Itoa(s.OverdueDays),
		KeyCorrectionWindowSeconds: strconv.Itoa(s.CorrectionWindowSeconds),
		KeyReminderTier1Days:       strconv.Itoa(s.ReminderTier1Days),
		KeyReminderTier2Days:       strconv.Itoa(s.ReminderTier2Days),
	}
}

// Store provides cached access to the settings table.
type Store struct {
	db *db.DB

	mu     sync.RWMutex
	cached *Settings
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Seed inserts defaults for keys that are not present yet. Existing values
// are never overwritten.
func (s *Store) Seed(ctx context.Context, defaults Settings) error {
	values := defaults.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)", k, values[k]); err != nil {
			return fmt.Errorf("seeding setting %s: %w", k, err)
		}
	}
	return nil
}

// Snapshot returns the cached settings, loading them on first use.
func (s *Store) Snapshot(ctx context.Context) (Settings, error) {
	s.mu.RLock()
	if s.cached != nil {
		snap := *s.cached
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()
	return s.Reload(ctx)
}

// Reload re-reads the settings table and replaces the cache.
func (s *Store) Reload(ctx context.Context) (Settings, error) {
	raw, err := s.All(ctx)
	if err != nil {
		return Settings{}, err
	}
	snap, err := parse(raw)
	if err != nil {
		return Settings{}, err
	}

	s.mu.Lock()
	s.cached = &snap
	s.mu.Unlock()
	return snap, nil
}

// All returns the raw key/value rows.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Set validates and writes a single key, then drops the cache.
func (s *Store) Set(ctx context.Context, key, value string) error {
	value = strings.TrimSpace(value)
	if err := validate(key, value); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}

	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
	return nil
}

func validate(key, value string) error {
	known := false
	for _, k := range Keys() {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown setting %q", key)
	}
	if numericKeys[key] {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("setting %s must be a positive integer, got %q", key, value)
		}
	}
	return nil
}

func parse(raw map[string]string) (Settings, error) {
	var s Settings
	s.OversightContact = raw[KeyOversightContact]

	ints := map[string]*int{
		KeyOverdueDays:             &s.OverdueDays,
		KeyCorrectionWindowSeconds: &s.CorrectionWindowSeconds,
		KeyReminderTier1Days:       &s.ReminderTier1Days,
		KeyReminderTier2Days:       &s.ReminderTier2Days,
	}
	for key, dst := range ints {
		v, ok := raw[key]
		if !ok {
			return Settings{}, fmt.Errorf("setting %s is missing", key)
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Settings{}, fmt.Errorf("setting %s: %w", key, err)
		}
		*dst = n
	}
	return s, nil
}
