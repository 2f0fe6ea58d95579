// Package metrics declares the Prometheus collectors shared by the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InboundEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "amostras",
		Name:      "inbound_events_total",
		Help:      "Inbound chat events by outcome.",
	}, []string{"outcome"})

	OutboundMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "amostras",
		Name:      "outbound_messages_total",
		Help:      "Outbound transport sends by kind and result.",
	}, []string{"kind", "result"})

	Reminders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "amostras",
		Name:      "escalation_reminders_total",
		Help:      "Reminders emitted by the escalation sweep, by tier.",
	}, []string{"tier"})

	SamplesPromoted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "amostras",
		Name:      "samples_promoted_total",
		Help:      "Samples moved from pending_feedback to overdue.",
	})

	CorrectionWindows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "amostras",
		Name:      "correction_windows_total",
		Help:      "Correction window lifecycle events.",
	}, []string{"event"})
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)
