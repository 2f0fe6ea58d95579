package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SimpleDioney/Amostras/internal/audit"
	"github.com/SimpleDioney/Amostras/internal/correction"
	"github.com/SimpleDioney/Amostras/internal/directory"
	"github.com/SimpleDioney/Amostras/internal/ledger"
	"github.com/SimpleDioney/Amostras/internal/session"
	"github.com/SimpleDioney/Amostras/internal/transport"
)

func (e *Engine) startDevolution(ctx context.Context, p directory.Participant) error {
	owned, err := e.samples.ListByOwner(ctx, p.ID)
	if err != nil {
		return err
	}
	var rows []transport.Row
	for _, s := range owned {
		if !s.Status.AwaitingDevolution() {
			continue
		}
		rows = append(rows, transport.Row{
			ID:          prefixSample + s.ID,
			Title:       "Sample ..." + s.ShortID(),
			Description: "Received on " + ledger.DateOf(s.ReceivedAt.In(e.loc)).Display(),
		})
	}
	if len(rows) == 0 {
		return e.finish(ctx, p, "You have no samples awaiting feedback right now.")
	}
	if err := e.sessions.Put(ctx, p.ID, session.SelectSampleForDevolution{}); err != nil {
		return err
	}
	e.reply(ctx, p.ID, list("Which sample are you giving feedback on?", "Select sample", "Your pending samples", rows...))
	return nil
}

func (e *Engine) startFollowUp(ctx context.Context, p directory.Participant) error {
	owned, err := e.samples.ListByOwner(ctx, p.ID)
	if err != nil {
		return err
	}
	var rows []transport.Row
	for _, s := range owned {
		if s.Status != ledger.StatusAwaitingClient {
			continue
		}
		rows = append(rows, transport.Row{
			ID:          prefixFollowUp + s.ID,
			Title:       "Sample ..." + s.ShortID(),
			Description: fmt.Sprintf("Customer: %s | Scheduled for: %s", s.CustomerName, s.FollowUpDate.Display()),
		})
	}
	if len(rows) == 0 {
		return e.finish(ctx, p, "You have no follow-ups scheduled right now.")
	}
	if err := e.sessions.Put(ctx, p.ID, session.SelectSampleForFollowUp{}); err != nil {
		return err
	}
	e.reply(ctx, p.ID, list("Which follow-up are you reporting on?", "Select follow-up", "Your scheduled follow-ups", rows...))
	return nil
}

// mySamples sends the agent a summary of every sample that still needs
// something from them.
func (e *Engine) mySamples(ctx context.Context, p directory.Participant) error {
	owned, err := e.samples.ListByOwner(ctx, p.ID)
	if err != nil {
		return err
	}
	var overdue, pending, awaiting []ledger.Sample
	for _, s := range owned {
		switch s.Status {
		case ledger.StatusOverdue:
			overdue = append(overdue, s)
		case ledger.StatusPendingFeedback:
			pending = append(pending, s)
		case ledger.StatusAwaitingClient:
			awaiting = append(awaiting, s)
		}
	}
	if len(overdue)+len(pending)+len(awaiting) == 0 {
		return e.finish(ctx, p, "You have no open samples right now. ✅")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello, *%s*! Here is the summary of your samples:\n", p.Name)
	received := func(s ledger.Sample) string {
		return fmt.Sprintf(" • ID ...%s (Received on %s)\n", s.ShortID(), ledger.DateOf(s.ReceivedAt.In(e.loc)).Display())
	}
	if len(overdue) > 0 {
		fmt.Fprintf(&b, "\n*🚨 OVERDUE (%d)*\n", len(overdue))
		for _, s := range overdue {
			b.WriteString(received(s))
		}
	}
	if len(pending) > 0 {
		fmt.Fprintf(&b, "\n*⏳ PENDING FEEDBACK (%d)*\n", len(pending))
		for _, s := range pending {
			b.WriteString(received(s))
		}
	}
	if len(awaiting) > 0 {
		fmt.Fprintf(&b, "\n*🗓️ AWAITING CLIENT (%d)*\n", len(awaiting))
		for _, s := range awaiting {
			fmt.Fprintf(&b, " • ID ...%s (Customer: %s, follow-up %s)\n", s.ShortID(), s.CustomerName, s.FollowUpDate.Display())
		}
	}
	return e.finish(ctx, p, b.String())
}

// ownSample returns the participant's sample when it exists and is in one
// of the given statuses.
func (e *Engine) ownSample(ctx context.Context, p directory.Participant, id string, ok func(ledger.Status) bool) (*ledger.Sample, error) {
	s, err := e.samples.Get(ctx, id)
	if err != nil || s == nil {
		return nil, err
	}
	if s.OwnerID != p.ID || !ok(s.Status) {
		return nil, nil
	}
	return s, nil
}

func (e *Engine) resolveDevolutionSample(ctx context.Context, p directory.Participant, in Input) error {
	id, ok := stripPrefix(in.Selection, prefixSample)
	if !ok {
		return invalidReprompt("Please choose a sample from the list.")
	}
	s, err := e.ownSample(ctx, p, id, ledger.Status.AwaitingDevolution)
	if err != nil {
		return err
	}
	if s == nil {
		return notFound("Sample", session.SelectSampleForDevolution{})
	}
	return e.enter(ctx, p, session.CustomerName{SampleID: s.ID})
}

func (e *Engine) resolveFollowUpSample(ctx context.Context, p directory.Participant, in Input) error {
	id, ok := stripPrefix(in.Selection, prefixFollowUp)
	if !ok {
		return invalidReprompt("Please choose a follow-up from the list.")
	}
	s, err := e.ownSample(ctx, p, id, func(st ledger.Status) bool { return st == ledger.StatusAwaitingClient })
	if err != nil {
		return err
	}
	if s == nil {
		return notFound("Sample", session.SelectSampleForFollowUp{})
	}
	return e.enter(ctx, p, session.ClientReturned{SampleID: s.ID, CustomerName: s.CustomerName})
}

func (e *Engine) resolveCustomerName(ctx context.Context, p directory.Participant, st session.CustomerName, in Input) error {
	name := strings.TrimSpace(in.Text)
	if name == "" {
		return invalidReprompt("Please type the customer's name.")
	}
	return e.enter(ctx, p, session.ContractClosed{SampleID: st.SampleID, CustomerName: name})
}

func (e *Engine) resolveContract(ctx context.Context, p directory.Participant, st session.ContractClosed, in Input) error {
	choice, ok := choose(in, contractOptions)
	if !ok {
		return invalidReprompt("Please answer yes or no.")
	}
	if choice == optContractYes {
		return e.finalize(ctx, p, st.SampleID, func(s *ledger.Sample) {
			s.CustomerName = st.CustomerName
			s.Contract = ledger.ContractClosed
			s.Status = ledger.StatusClosedDeal
		})
	}
	return e.enter(ctx, p, session.NextAction{SampleID: st.SampleID, CustomerName: st.CustomerName})
}

func (e *Engine) resolveNextAction(ctx context.Context, p directory.Participant, st session.NextAction, in Input) error {
	choice, ok := choose(in, nextActionOptions)
	if !ok {
		return invalidReprompt("Please choose one of the options.")
	}
	if choice == optFinalFeedback {
		return e.enter(ctx, p, session.ClientFeedback{SampleID: st.SampleID, CustomerName: st.CustomerName, Contract: ledger.ContractNotClosed})
	}
	return e.enter(ctx, p, session.FollowUpDateChoice{SampleID: st.SampleID, CustomerName: st.CustomerName, Contract: ledger.ContractNotClosed})
}

func (e *Engine) resolveClientReturned(ctx context.Context, p directory.Participant, st session.ClientReturned, in Input) error {
	choice, ok := choose(in, returnedOptions)
	if !ok {
		return invalidReprompt("Please answer yes or no.")
	}
	if choice == optReturnedYes {
		return e.enter(ctx, p, session.FollowUpContract{SampleID: st.SampleID, CustomerName: st.CustomerName})
	}
	return e.enter(ctx, p, session.FollowUpDateChoice{SampleID: st.SampleID, CustomerName: st.CustomerName, Rescheduling: true})
}

func (e *Engine) resolveFollowUpContract(ctx context.Context, p directory.Participant, st session.FollowUpContract, in Input) error {
	choice, ok := choose(in, followUpContractOptions)
	if !ok {
		return invalidReprompt("Please answer yes or no.")
	}
	contract := ledger.ContractNotClosed
	if choice == optFUContractYes {
		contract = ledger.ContractClosed
	}
	return e.enter(ctx, p, session.ClientFeedback{SampleID: st.SampleID, CustomerName: st.CustomerName, Contract: contract})
}

func (e *Engine) resolveClientFeedback(ctx context.Context, p directory.Participant, st session.ClientFeedback, in Input) error {
	feedback := strings.TrimSpace(in.Text)
	if feedback == "" {
		return invalidReprompt("Please type the client's feedback.")
	}
	return e.finalize(ctx, p, st.SampleID, func(s *ledger.Sample) {
		s.CustomerName = st.CustomerName
		s.Contract = st.Contract
		s.ClientFeedback = feedback
		s.Status = ledger.StatusFeedbackReceived
		if st.Contract == ledger.ContractClosed {
			s.Status = ledger.StatusClosedDeal
		}
	})
}

func (e *Engine) resolveDateChoice(ctx context.Context, p directory.Participant, st session.FollowUpDateChoice, in Input) error {
	if in.Selection == optDateManual || in.norm() == normalize("Type a specific date") {
		return e.enter(ctx, p, session.FollowUpDateManual(st))
	}
	days, ok := presetDays(in, st.Rescheduling)
	if !ok {
		return invalidReprompt("Please choose a date from the list.")
	}
	return e.schedule(ctx, p, st, e.today().AddDays(days))
}

func (e *Engine) resolveManualDate(ctx context.Context, p directory.Participant, st session.FollowUpDateManual, in Input) error {
	d, err := ledger.ParseDayMonthYear(in.Text)
	if err != nil {
		return invalid("Invalid date format. Use DD/MM/YYYY.")
	}
	return e.schedule(ctx, p, session.FollowUpDateChoice(st), d)
}

// schedule finalizes a sample as awaiting the client until date. A
// reschedule keeps the contract answer already stored on the sample.
func (e *Engine) schedule(ctx context.Context, p directory.Participant, st session.FollowUpDateChoice, date ledger.Date) error {
	return e.finalize(ctx, p, st.SampleID, func(s *ledger.Sample) {
		s.CustomerName = st.CustomerName
		if !st.Rescheduling {
			s.Contract = st.Contract
		}
		s.Status = ledger.StatusAwaitingClient
		s.FollowUpDate = date
		s.FollowUpNotified = false
	})
}

// finalize applies a devolution through the correction manager and offers
// the agent a chance to undo it.
func (e *Engine) finalize(ctx context.Context, p directory.Participant, sampleID string, apply func(*ledger.Sample)) error {
	snap, err := e.settings.Snapshot(ctx)
	if err != nil {
		return err
	}

	current, err := e.samples.Get(ctx, sampleID)
	if err != nil {
		return err
	}
	if current == nil || current.OwnerID != p.ID {
		return notFound("Sample", nil)
	}
	if current.Status.Terminal() {
		return e.finish(ctx, p, "This sample already has a final feedback.")
	}

	updated, err := e.corrections.Finalize(ctx, p.ID, sampleID, snap.CorrectionWindow(), apply)
	if errors.Is(err, correction.ErrSampleNotFound) {
		return notFound("Sample", nil)
	}
	if err != nil {
		return err
	}

	e.record(ctx, p, audit.Entry{
		Action:        audit.ActionDevolutionFinal,
		SubjectID:     sampleID,
		Summary:       "devolution recorded for customer " + updated.CustomerName,
		PreviousValue: string(current.Status),
		NewValue:      string(updated.Status),
	})

	var summary string
	switch updated.Status {
	case ledger.StatusAwaitingClient:
		summary = fmt.Sprintf("✅ OK, scheduled for %s! I'll remind you on that date. Thanks!", updated.FollowUpDate.Display())
	case ledger.StatusClosedDeal:
		summary = "✅ Contract closed! Feedback recorded successfully!"
	default:
		summary = "✅ Feedback recorded successfully! Thank you!"
	}
	e.reply(ctx, p.ID, correctionOffer(summary, snap.CorrectionWindow()))
	return nil
}
