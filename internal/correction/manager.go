// Package correction owns the grace period that follows every finalized
// devolution. While a window is open the agent can undo the devolution and
// resume the conversation where it was; when it closes the final report is
// dispatched.
package correction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SimpleDioney/Amostras/internal/db"
	"github.com/SimpleDioney/Amostras/internal/ledger"
	"github.com/SimpleDioney/Amostras/internal/logger"
	"github.com/SimpleDioney/Amostras/internal/metrics"
	"github.com/SimpleDioney/Amostras/internal/session"
)

// ErrSampleNotFound is returned by Finalize when the sample no longer exists.
var ErrSampleNotFound = errors.New("sample not found")

// ExpireFunc receives the finalized sample once its window closes without a
// correction.
type ExpireFunc func(ctx context.Context, participantID string, sample ledger.Sample)

// Timer is the part of *time.Timer the manager needs.
type Timer interface {
	Stop() bool
}

// window is an armed snapshot: the pre-images taken at finalization.
type window struct {
	sample   ledger.Sample
	state    session.State
	deadline time.Time
	timer    Timer
}

// Manager holds at most one open window per participant. Windows live in
// memory only and are lost on restart.
type Manager struct {
	db       *db.DB
	onExpire ExpireFunc

	// afterFunc and now are replaced in tests.
	afterFunc func(d time.Duration, f func()) Timer
	now       func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// NewManager creates a Manager. onExpire may be nil.
func NewManager(database *db.DB, onExpire ExpireFunc) *Manager {
	return &Manager{
		db:       database,
		onExpire: onExpire,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Finalize applies a devolution to a sample and opens a correction window.
// The current sample and session state are captured, apply mutates the
// sample, and the updated sample plus the cleared session are written in
// one transaction. An existing window for the participant is replaced
// without dispatching its report.
func (m *Manager) Finalize(ctx context.Context, participantID, sampleID string, d time.Duration, apply func(*ledger.Sample)) (ledger.Sample, error) {
	var (
		before ledger.Sample
		after  ledger.Sample
		prior  session.State
	)
	err := m.db.InTx(ctx, func(tx *sql.Tx) error {
		current, err := ledger.GetTx(ctx, tx, sampleID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrSampleNotFound
		}
		prior, err = session.GetTx(ctx, tx, participantID)
		if err != nil {
			return err
		}

		before = *current
		after = *current
		apply(&after)
		after.ID = before.ID
		after.OwnerID = before.OwnerID
		after.ReceivedAt = before.ReceivedAt

		if err := ledger.UpdateTx(ctx, tx, after); err != nil {
			return err
		}
		return session.ClearTx(ctx, tx, participantID)
	})
	if err != nil {
		return ledger.Sample{}, fmt.Errorf("finalizing sample %s: %w", sampleID, err)
	}

	w := &window{sample: before, state: prior, deadline: m.now().Add(d)}

	m.mu.Lock()
	if prev, ok := m.windows[participantID]; ok {
		prev.timer.Stop()
		metrics.CorrectionWindows.WithLabelValues("replaced").Inc()
		logger.Warn("correction_window_replaced",
			"participant", participantID, "sample", prev.sample.ID)
	}
	m.windows[participantID] = w
	w.timer = m.afterFunc(d, func() { m.expire(participantID, w) })
	m.mu.Unlock()

	metrics.CorrectionWindows.WithLabelValues("armed").Inc()
	logger.Info("correction_window_armed",
		"participant", participantID, "sample", sampleID, "status", string(after.Status), "window", d.String())
	return after, nil
}

// Correct undoes the participant's open devolution. The sample's mutable
// fields and the session state are restored from the snapshot and the
// restored state is returned so the caller can re-issue its prompt. ok is
// false when no window is open.
func (m *Manager) Correct(ctx context.Context, participantID string) (restored session.State, ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, found := m.windows[participantID]
	if !found {
		return nil, false, nil
	}

	err = m.db.InTx(ctx, func(tx *sql.Tx) error {
		if err := ledger.UpdateTx(ctx, tx, w.sample); err != nil {
			return err
		}
		return session.PutTx(ctx, tx, participantID, w.state)
	})
	if err != nil {
		return nil, false, fmt.Errorf("restoring sample %s: %w", w.sample.ID, err)
	}

	w.timer.Stop()
	delete(m.windows, participantID)

	metrics.CorrectionWindows.WithLabelValues("corrected").Inc()
	logger.Info("correction_applied", "participant", participantID, "sample", w.sample.ID)
	return w.state, true, nil
}

// Pending reports the deadline of the participant's open window.
func (m *Manager) Pending(participantID string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[participantID]
	if !ok {
		return time.Time{}, false
	}
	return w.deadline, true
}

// Discard closes the participant's window without restoring or reporting.
func (m *Manager) Discard(participantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.windows[participantID]; ok {
		w.timer.Stop()
		delete(m.windows, participantID)
	}
}

// Stop cancels every open window. Reports for them are not sent.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, w := range m.windows {
		w.timer.Stop()
		delete(m.windows, id)
	}
}

func (m *Manager) expire(participantID string, w *window) {
	m.mu.Lock()
	if m.windows[participantID] != w {
		// Corrected, replaced or discarded after the timer fired.
		m.mu.Unlock()
		return
	}
	delete(m.windows, participantID)
	m.mu.Unlock()

	metrics.CorrectionWindows.WithLabelValues("expired").Inc()

	ctx := context.Background()
	sample, err := ledger.GetTx(ctx, m.db, w.sample.ID)
	if err != nil {
		logger.Error("correction_expire_read_failed", "participant", participantID, "sample", w.sample.ID, "error", err)
		return
	}
	if sample == nil {
		logger.Warn("correction_expire_sample_missing", "participant", participantID, "sample", w.sample.ID)
		return
	}
	if m.onExpire != nil {
		m.onExpire(ctx, participantID, *sample)
	}
}
