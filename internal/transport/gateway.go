package transport

import (
	"context"
	"errors"

	"github.com/SimpleDioney/Amostras/internal/logger"
	"github.com/SimpleDioney/Amostras/internal/metrics"
)

// ErrQueueFull is returned by Submit when the inbound queue is saturated.
var ErrQueueFull = errors.New("inbound queue full")

// failureText is sent when handling an event fails.
const failureText = "❌ Something went wrong while processing your request. Please try again."

// EventHandler processes one inbound event to completion.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev InboundEvent) error
}

// Gateway is the channel-agnostic entry point for inbound events. Events are
// queued and handled one at a time, in arrival order, by Run.
type Gateway struct {
	handler EventHandler
	sender  Sender
	queue   chan InboundEvent
}

// NewGateway creates a Gateway with a queue of the given capacity.
func NewGateway(handler EventHandler, sender Sender, queueSize int) *Gateway {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Gateway{
		handler: handler,
		sender:  sender,
		queue:   make(chan InboundEvent, queueSize),
	}
}

// Accepts reports whether an event should reach the handler at all. Group
// messages and echoes of our own messages are dropped.
func Accepts(ev InboundEvent) bool {
	return !ev.IsGroup && !ev.FromSelf && ev.SenderID != ""
}

// Submit enqueues an event without blocking. Dropped events return nil.
func (g *Gateway) Submit(ev InboundEvent) error {
	if !Accepts(ev) {
		metrics.InboundEvents.WithLabelValues("dropped").Inc()
		return nil
	}
	select {
	case g.queue <- ev:
		metrics.InboundEvents.WithLabelValues("queued").Inc()
		return nil
	default:
		metrics.InboundEvents.WithLabelValues("queue_full").Inc()
		logger.Warn("inbound_queue_full", "from", ev.SenderID)
		return ErrQueueFull
	}
}

// Run handles queued events until ctx is done.
func (g *Gateway) Run(ctx context.Context) {
	logger.Info("gateway_started", "queue", cap(g.queue))
	for {
		select {
		case <-ctx.Done():
			logger.Info("gateway_stopping", "pending", len(g.queue))
			return
		case ev := <-g.queue:
			g.Process(ctx, ev)
		}
	}
}

// Process handles one event synchronously. A handler error is logged and
// the sender is told that something went wrong.
func (g *Gateway) Process(ctx context.Context, ev InboundEvent) {
	if !Accepts(ev) {
		metrics.InboundEvents.WithLabelValues("dropped").Inc()
		return
	}
	if err := g.handler.HandleEvent(ctx, ev); err != nil {
		metrics.InboundEvents.WithLabelValues("failed").Inc()
		logger.Error("inbound_handle_failed", "from", ev.SenderID, "error", err)
		if sendErr := g.sender.SendText(ctx, ev.SenderID, failureText); sendErr != nil {
			logger.Warn("transport_send_failed", "to", ev.SenderID, "error", sendErr)
		}
		return
	}
	metrics.InboundEvents.WithLabelValues("handled").Inc()
}
