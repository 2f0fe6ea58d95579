// Package escalation runs the daily sweep over the sample ledger: overdue
// promotion, tiered overdue reminders and one-time follow-up reminders.
package escalation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/SimpleDioney/Amostras/internal/directory"
	"github.com/SimpleDioney/Amostras/internal/ledger"
	"github.com/SimpleDioney/Amostras/internal/logger"
	"github.com/SimpleDioney/Amostras/internal/metrics"
	"github.com/SimpleDioney/Amostras/internal/settings"
)

// Reminder tiers, also used as metric labels.
const (
	TierStandard   = "standard"
	TierOne        = "tier1"
	TierTwo        = "tier2"
	TierEscalation = "escalation"
	TierFollowUp   = "follow_up"
)

// Sender delivers a plain text message.
type Sender interface {
	SendText(ctx context.Context, to, text string) error
}

// Result counts what one sweep did.
type Result struct {
	Promoted    int64
	Standard    int
	Tier1       int
	Tier2       int
	Escalations int
	FollowUps   int
	Failed      int
}

// Scheduler owns the escalation sweep.
type Scheduler struct {
	samples  *ledger.Store
	settings *settings.Store
	sender   Sender
	loc      *time.Location
	cron     string

	// now is replaced in tests.
	now func() time.Time

	mu sync.Mutex
}

// New creates a Scheduler. cron is evaluated in loc.
func New(samples *ledger.Store, cfg *settings.Store, sender Sender, loc *time.Location, cron string) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		samples:  samples,
		settings: cfg,
		sender:   sender,
		loc:      loc,
		cron:     cron,
		now:      time.Now,
	}
}

// Start validates the cron expression and runs sweeps on its ticks until
// the returned cancel func is called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) (context.CancelFunc, error) {
	if !gronx.IsValid(s.cron) {
		logger.Error("escalation_invalid_cron", "cron", s.cron)
		return nil, fmt.Errorf("invalid escalation cron expression: %s", s.cron)
	}

	ctx, cancel := context.WithCancel(ctx)
	go s.run(ctx)
	logger.Info("escalation_scheduler_started", "cron", s.cron, "timezone", s.loc.String())
	return cancel, nil
}

func (s *Scheduler) run(ctx context.Context) {
	for {
		// Ticks are computed on local wall-clock time.
		now := s.now().In(s.loc)
		next, err := gronx.NextTickAfter(s.cron, now, false)
		if err != nil {
			logger.Error("escalation_nexttick_failed", "cron", s.cron, "error", err)
			select {
			case <-time.After(30 * time.Second):
				continue
			case <-ctx.Done():
				logger.Info("escalation_scheduler_stopping")
				return
			}
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			if _, err := s.Sweep(ctx); err != nil {
				logger.Error("escalation_sweep_failed", "error", err)
			}
		case <-ctx.Done():
			timer.Stop()
			logger.Info("escalation_scheduler_stopping")
			return
		}
	}
}

// Sweep runs one promotion pass and one notification pass. Concurrent calls
// are serialized.
func (s *Scheduler) Sweep(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res Result
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return res, fmt.Errorf("loading settings: %w", err)
	}

	today := ledger.Today(s.now(), s.loc)
	cutoff := today.AddDays(-snap.OverdueDays).Midnight(s.loc)
	res.Promoted, err = s.samples.PromoteOverdue(ctx, cutoff)
	if err != nil {
		return res, err
	}
	metrics.SamplesPromoted.Add(float64(res.Promoted))

	if err := s.remindOverdue(ctx, snap, today, &res); err != nil {
		return res, err
	}
	if err := s.remindFollowUps(ctx, today, &res); err != nil {
		return res, err
	}

	logger.Info("escalation_sweep_done",
		"promoted", res.Promoted,
		"standard", res.Standard,
		"tier1", res.Tier1,
		"tier2", res.Tier2,
		"escalations", res.Escalations,
		"follow_ups", res.FollowUps,
		"failed", res.Failed)
	return res, nil
}

// remindOverdue nags the owner of every overdue sample on every run.
func (s *Scheduler) remindOverdue(ctx context.Context, snap settings.Settings, today ledger.Date, res *Result) error {
	rows, err := s.samples.ReportRows(ctx, ledger.Filter{Status: ledger.StatusOverdue})
	if err != nil {
		return err
	}

	oversight := ""
	if snap.OversightContact != "" {
		oversight = directory.Address(snap.OversightContact)
	}

	for _, row := range rows {
		sample := row.Sample
		received := ledger.DateOf(sample.ReceivedAt.In(s.loc))
		days := today.DaysSince(received)

		switch {
		case days >= snap.ReminderTier2Days:
			if s.send(ctx, sample.OwnerID, TierTwo, tierTwoMessage(sample, days), res) {
				res.Tier2++
			}
			if oversight != "" && s.send(ctx, oversight, TierEscalation, escalationMessage(row.AgentName, sample, days), res) {
				res.Escalations++
			}
		case days >= snap.ReminderTier1Days:
			if s.send(ctx, sample.OwnerID, TierOne, tierOneMessage(sample, days), res) {
				res.Tier1++
			}
		default:
			if s.send(ctx, sample.OwnerID, TierStandard, standardMessage(sample, received), res) {
				res.Standard++
			}
		}
	}
	return nil
}

// remindFollowUps sends each due follow-up reminder once. The notified flag
// is claimed before sending so overlapping sweeps cannot both send; a failed
// send is therefore not retried.
func (s *Scheduler) remindFollowUps(ctx context.Context, today ledger.Date, res *Result) error {
	due, err := s.samples.DueFollowUps(ctx, today)
	if err != nil {
		return err
	}
	for _, sample := range due {
		claimed, err := s.samples.ClaimFollowUpReminder(ctx, sample.ID)
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}
		if s.send(ctx, sample.OwnerID, TierFollowUp, followUpMessage(sample), res) {
			res.FollowUps++
		}
	}
	return nil
}

func (s *Scheduler) send(ctx context.Context, to, tier, text string, res *Result) bool {
	if err := s.sender.SendText(ctx, to, text); err != nil {
		res.Failed++
		logger.Warn("escalation_send_failed", "to", to, "tier", tier, "error", err)
		return false
	}
	metrics.Reminders.WithLabelValues(tier).Inc()
	return true
}
