package correction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SimpleDioney/Amostras/internal/db"
	"github.com/SimpleDioney/Amostras/internal/ledger"
	"github.com/SimpleDioney/Amostras/internal/session"
)

type fakeTimer struct {
	d       time.Duration
	fire    func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) afterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, fire: f}
	c.timers = append(c.timers, t)
	return t
}

type expired struct {
	participant string
	sample      ledger.Sample
}

type fixture struct {
	mgr      *Manager
	clock    *fakeClock
	samples  *ledger.Store
	sessions *session.Store
	expired  []expired
	sampleID string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if _, err := database.Exec("INSERT INTO participants (id, name, role) VALUES ('1@c.us', 'Ana', 'agent')"); err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		clock:    &fakeClock{},
		samples:  ledger.NewStore(database),
		sessions: session.NewStore(database),
	}
	f.mgr = NewManager(database, func(_ context.Context, id string, s ledger.Sample) {
		f.expired = append(f.expired, expired{id, s})
	})
	f.mgr.afterFunc = f.clock.afterFunc

	ids, err := f.samples.CreateBatch(context.Background(), "1@c.us", 1, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	f.sampleID = ids[0]
	return f
}

func scheduleFollowUp(s *ledger.Sample) {
	s.Status = ledger.StatusAwaitingClient
	s.CustomerName = "Acme"
	s.Contract = ledger.ContractNotClosed
	s.FollowUpDate = ledger.Date{Year: 2026, Month: time.May, Day: 8}
	s.FollowUpNotified = false
}

func TestFinalizeAppliesAndClearsSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	prior := session.FollowUpDateChoice{SampleID: f.sampleID, CustomerName: "Acme", Contract: ledger.ContractNotClosed}
	f.sessions.Put(ctx, "1@c.us", prior)

	got, err := f.mgr.Finalize(ctx, "1@c.us", f.sampleID, 5*time.Minute, scheduleFollowUp)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if got.Status != ledger.StatusAwaitingClient {
		t.Errorf("returned status = %s", got.Status)
	}

	stored, _ := f.samples.Get(ctx, f.sampleID)
	if stored.Status != ledger.StatusAwaitingClient || stored.CustomerName != "Acme" {
		t.Errorf("stored sample = %+v", stored)
	}
	if st, _ := f.sessions.Get(ctx, "1@c.us"); st != nil {
		t.Errorf("session not cleared: %#v", st)
	}
	if _, ok := f.mgr.Pending("1@c.us"); !ok {
		t.Error("no window pending")
	}
	if len(f.clock.timers) != 1 || f.clock.timers[0].d != 5*time.Minute {
		t.Errorf("timers = %+v", f.clock.timers)
	}
}

func TestCorrectRestoresSampleAndStep(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	original, _ := f.samples.Get(ctx, f.sampleID)
	prior := session.FollowUpDateChoice{SampleID: f.sampleID, CustomerName: "Acme", Contract: ledger.ContractNotClosed}
	f.sessions.Put(ctx, "1@c.us", prior)

	if _, err := f.mgr.Finalize(ctx, "1@c.us", f.sampleID, time.Minute, scheduleFollowUp); err != nil {
		t.Fatal(err)
	}

	restored, ok, err := f.mgr.Correct(ctx, "1@c.us")
	if err != nil || !ok {
		t.Fatalf("Correct: ok=%v err=%v", ok, err)
	}
	if restored != prior {
		t.Errorf("restored = %#v, want %#v", restored, prior)
	}

	got, _ := f.samples.Get(ctx, f.sampleID)
	if *got != *original {
		t.Errorf("sample not restored:\n got %+v\nwant %+v", got, original)
	}
	if st, _ := f.sessions.Get(ctx, "1@c.us"); st != prior {
		t.Errorf("session = %#v", st)
	}
	if !f.clock.timers[0].stopped {
		t.Error("timer not stopped")
	}

	// A stale fire after the correction is a no-op.
	f.clock.timers[0].fire()
	if len(f.expired) != 0 {
		t.Errorf("report dispatched after correction: %+v", f.expired)
	}

	if _, ok, _ := f.mgr.Correct(ctx, "1@c.us"); ok {
		t.Error("second correction succeeded")
	}
}

func TestExpiryDispatchesCurrentSample(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.mgr.Finalize(ctx, "1@c.us", f.sampleID, time.Minute, scheduleFollowUp); err != nil {
		t.Fatal(err)
	}
	// The scheduler may touch the record while the window is open.
	if _, err := f.samples.ClaimFollowUpReminder(ctx, f.sampleID); err != nil {
		t.Fatal(err)
	}

	f.clock.timers[0].fire()
	if len(f.expired) != 1 {
		t.Fatalf("expired = %d, want 1", len(f.expired))
	}
	e := f.expired[0]
	if e.participant != "1@c.us" || e.sample.ID != f.sampleID || !e.sample.FollowUpNotified {
		t.Errorf("dispatched %+v", e)
	}
	if _, ok := f.mgr.Pending("1@c.us"); ok {
		t.Error("window still pending after expiry")
	}
	if _, ok, _ := f.mgr.Correct(ctx, "1@c.us"); ok {
		t.Error("correction allowed after expiry")
	}

	f.clock.timers[0].fire()
	if len(f.expired) != 1 {
		t.Error("second fire dispatched again")
	}
}

func TestSecondFinalizeReplacesWindow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ids, _ := f.samples.CreateBatch(ctx, "1@c.us", 1, time.Now())

	f.mgr.Finalize(ctx, "1@c.us", f.sampleID, time.Minute, scheduleFollowUp)
	f.mgr.Finalize(ctx, "1@c.us", ids[0], time.Minute, func(s *ledger.Sample) {
		s.Status = ledger.StatusClosedDeal
		s.Contract = ledger.ContractClosed
	})

	if !f.clock.timers[0].stopped {
		t.Error("first timer still running")
	}
	f.clock.timers[0].fire()
	if len(f.expired) != 0 {
		t.Error("replaced window dispatched its report")
	}

	// Correcting now undoes only the second devolution.
	if _, ok, _ := f.mgr.Correct(ctx, "1@c.us"); !ok {
		t.Fatal("no window to correct")
	}
	first, _ := f.samples.Get(ctx, f.sampleID)
	second, _ := f.samples.Get(ctx, ids[0])
	if first.Status != ledger.StatusAwaitingClient {
		t.Errorf("first sample status = %s", first.Status)
	}
	if second.Status != ledger.StatusPendingFeedback {
		t.Errorf("second sample status = %s", second.Status)
	}
}

func TestFinalizeMissingSample(t *testing.T) {
	f := setup(t)
	_, err := f.mgr.Finalize(context.Background(), "1@c.us", "nope", time.Minute, scheduleFollowUp)
	if !errors.Is(err, ErrSampleNotFound) {
		t.Errorf("expected ErrSampleNotFound, got %v", err)
	}
	if len(f.clock.timers) != 0 {
		t.Error("timer armed for missing sample")
	}
}

func TestDiscardAndStop(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.mgr.Finalize(ctx, "1@c.us", f.sampleID, time.Minute, scheduleFollowUp)

	f.mgr.Discard("1@c.us")
	if _, ok := f.mgr.Pending("1@c.us"); ok {
		t.Error("pending after Discard")
	}
	f.clock.timers[0].fire()
	if len(f.expired) != 0 {
		t.Error("discarded window dispatched")
	}

	f.mgr.Finalize(ctx, "1@c.us", f.sampleID, time.Minute, scheduleFollowUp)
	f.mgr.Stop()
	if !f.clock.timers[1].stopped {
		t.Error("Stop left a timer running")
	}
}

func TestRealTimerFires(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	database.Exec("INSERT INTO participants (id, name, role) VALUES ('1@c.us', 'Ana', 'agent')")
	ids, _ := ledger.NewStore(database).CreateBatch(context.Background(), "1@c.us", 1, time.Now())

	done := make(chan ledger.Sample, 1)
	mgr := NewManager(database, func(_ context.Context, _ string, s ledger.Sample) { done <- s })
	if _, err := mgr.Finalize(context.Background(), "1@c.us", ids[0], 10*time.Millisecond, func(s *ledger.Sample) {
		s.Status = ledger.StatusClosedDeal
		s.Contract = ledger.ContractClosed
	}); err != nil {
		t.Fatal(err)
	}

	select {
	case s := <-done:
		if s.Status != ledger.StatusClosedDeal {
			t.Errorf("status = %s", s.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("window never expired")
	}
}
