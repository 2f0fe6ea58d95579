// Package report builds the outputs that leave the bot: the final devolution
// summary sent to the oversight contact and the spreadsheet exports.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/SimpleDioney/Amostras/internal/directory"
	"github.com/SimpleDioney/Amostras/internal/ledger"
	"github.com/SimpleDioney/Amostras/internal/logger"
	"github.com/SimpleDioney/Amostras/internal/settings"
)

// TextSender delivers a plain text message.
type TextSender interface {
	SendText(ctx context.Context, to, text string) error
}

// Dispatcher sends final devolution reports to the oversight contact.
type Dispatcher struct {
	sender    TextSender
	directory *directory.Store
	settings  *settings.Store
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(sender TextSender, dir *directory.Store, cfg *settings.Store) *Dispatcher {
	return &Dispatcher{sender: sender, directory: dir, settings: cfg}
}

// SendFinalReport composes the summary of a finalized sample and sends it to
// the oversight contact. Delivery is best effort; every failure is logged
// and swallowed.
func (d *Dispatcher) SendFinalReport(ctx context.Context, participantID string, sample ledger.Sample) {
	snap, err := d.settings.Snapshot(ctx)
	if err != nil {
		logger.Error("final_report_settings_failed", "sample", sample.ID, "error", err)
		return
	}
	if snap.OversightContact == "" {
		logger.Warn("final_report_skipped", "reason", "no oversight contact", "sample", sample.ID)
		return
	}

	agent, err := d.directory.Get(ctx, participantID)
	if err != nil {
		logger.Error("final_report_agent_lookup_failed", "participant", participantID, "error", err)
		return
	}
	if agent == nil {
		logger.Warn("final_report_skipped", "reason", "agent removed", "participant", participantID, "sample", sample.ID)
		return
	}

	to := directory.Address(snap.OversightContact)
	if err := d.sender.SendText(ctx, to, FinalReport(agent.Name, sample)); err != nil {
		logger.Error("final_report_send_failed", "to", to, "sample", sample.ID, "error", err)
		return
	}
	logger.Info("final_report_sent", "sample", sample.ID, "agent", agent.Name)
}

// FinalReport renders the oversight summary of a finalized sample.
func FinalReport(agentName string, s ledger.Sample) string {
	var b strings.Builder
	b.WriteString("*Sample devolution report*\n\n")
	fmt.Fprintf(&b, "*Agent:* %s\n", agentName)
	fmt.Fprintf(&b, "*Sample:* ...%s\n", s.ShortID())
	customer := s.CustomerName
	if customer == "" {
		customer = "not informed"
	}
	fmt.Fprintf(&b, "*Customer:* %s\n", customer)
	fmt.Fprintf(&b, "*Contract closed:* %s\n", contractText(s.Contract))
	if s.ClientFeedback != "" {
		fmt.Fprintf(&b, "*Client feedback:* %s\n", s.ClientFeedback)
	}
	if !s.FollowUpDate.IsZero() {
		fmt.Fprintf(&b, "*Follow-up date:* %s\n", s.FollowUpDate.Display())
	}
	fmt.Fprintf(&b, "\n*Final status:* %s", finalStatus(s.Status))
	return b.String()
}

func contractText(c ledger.Contract) string {
	switch c {
	case ledger.ContractClosed:
		return "yes"
	case ledger.ContractNotClosed:
		return "no"
	}
	return "not applicable"
}

func finalStatus(s ledger.Status) string {
	if s == ledger.StatusAwaitingClient {
		return "Awaiting client response"
	}
	return s.Label()
}
