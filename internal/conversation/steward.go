package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/SimpleDioney/Amostras/internal/audit"
	"github.com/SimpleDioney/Amostras/internal/directory"
	"github.com/SimpleDioney/Amostras/internal/ledger"
	"github.com/SimpleDioney/Amostras/internal/logger"
	"github.com/SimpleDioney/Amostras/internal/session"
	"github.com/SimpleDioney/Amostras/internal/transport"
)

// --- delivery ---

func (e *Engine) startDelivery(ctx context.Context, p directory.Participant) error {
	agents, err := e.directory.ListByRole(ctx, directory.RoleAgent)
	if err != nil {
		return err
	}
	busy, err := e.samples.OwnersAwaitingDevolution(ctx)
	if err != nil {
		return err
	}

	var rows []transport.Row
	for _, a := range agents {
		if busy[a.ID] {
			continue
		}
		rows = append(rows, transport.Row{ID: prefixDeliver + a.ID, Title: a.Name, Description: a.Number()})
	}
	if len(rows) == 0 {
		return e.finish(ctx, p, "No agent can receive samples right now. Agents still holding samples awaiting feedback are not listed.")
	}

	if err := e.sessions.Put(ctx, p.ID, session.SelectAgentForDelivery{}); err != nil {
		return err
	}
	e.reply(ctx, p.ID, list("Which agent received the samples?", "Select agent", "Eligible agents", rows...))
	return nil
}

func (e *Engine) resolveDeliveryTarget(ctx context.Context, p directory.Participant, in Input) error {
	id, ok := stripPrefix(in.Selection, prefixDeliver)
	if !ok {
		return invalidReprompt("Please choose an agent from the list.")
	}
	agent, err := e.agent(ctx, id)
	if err != nil {
		return err
	}
	if agent == nil {
		return notFound("Agent", session.SelectAgentForDelivery{})
	}
	busy, err := e.samples.OwnersAwaitingDevolution(ctx)
	if err != nil {
		return err
	}
	if busy[agent.ID] {
		return invalidReprompt(fmt.Sprintf("*%s* still has samples awaiting feedback and cannot receive new ones.", agent.Name))
	}
	return e.askQuantity(ctx, p, session.DeliveryQuantity{AgentID: agent.ID})
}

func (e *Engine) askQuantity(ctx context.Context, p directory.Participant, st session.DeliveryQuantity) error {
	agent, err := e.agent(ctx, st.AgentID)
	if err != nil {
		return err
	}
	if agent == nil {
		return e.startDelivery(ctx, p)
	}
	if err := e.sessions.Put(ctx, p.ID, st); err != nil {
		return err
	}
	e.reply(ctx, p.ID, text(fmt.Sprintf("How many samples did you deliver to *%s*?", agent.Name)))
	return nil
}

func (e *Engine) resolveDeliveryQuantity(ctx context.Context, p directory.Participant, st session.DeliveryQuantity, in Input) error {
	n, err := strconv.Atoi(in.Text)
	if err != nil || n <= 0 {
		return invalid("Please send a valid number greater than zero.")
	}
	agent, err := e.agent(ctx, st.AgentID)
	if err != nil {
		return err
	}
	if agent == nil {
		return notFound("Agent", session.SelectAgentForDelivery{})
	}

	// The batch and the end of the flow commit together.
	err = e.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := ledger.CreateBatchTx(ctx, tx, agent.ID, n, e.now()); err != nil {
			return err
		}
		return session.ClearTx(ctx, tx, p.ID)
	})
	if err != nil {
		return err
	}
	logger.Info("samples_delivered", "steward", p.ID, "agent", agent.ID, "count", n)
	e.record(ctx, p, audit.Entry{
		Action:    audit.ActionSamplesDelivered,
		SubjectID: agent.ID,
		Summary:   fmt.Sprintf("%d sample(s) delivered to %s", n, agent.Name),
		NewValue:  strconv.Itoa(n),
	})

	e.reply(ctx, p.ID, text(fmt.Sprintf("✅ *%d* sample(s) registered for *%s*.", n, agent.Name)))
	if err := e.showMenu(ctx, p); err != nil {
		return err
	}

	snap, err := e.settings.Snapshot(ctx)
	if err != nil {
		return err
	}
	notice := list(
		fmt.Sprintf("Hello, *%s*! You received *%d* new sample(s) today.\n\n*Attention:* you have *%d days* to give feedback!", agent.Name, n, snap.OverdueDays),
		"Actions", "Options",
		transport.Row{ID: string(CmdDevolution), Title: "Give sample feedback"},
	)
	if err := e.sender.SendList(ctx, agent.ID, *notice.List); err != nil {
		logger.Warn("delivery_notice_failed", "agent", agent.ID, "error", err)
		e.reply(ctx, p.ID, text(fmt.Sprintf("⚠️ Could not notify *%s*.", agent.Name)))
	}
	return nil
}

// --- add / remove agent ---

func (e *Engine) resolveAddAgent(ctx context.Context, p directory.Participant, in Input) error {
	name, number, ok := directory.ParseNameAndNumber(in.Text)
	if !ok {
		return invalid("Invalid format. Send: `Name, 5543...`")
	}
	err := e.directory.Create(ctx, directory.Participant{ID: directory.Address(number), Name: name, Role: directory.RoleAgent})
	if errors.Is(err, directory.ErrExists) {
		return e.finish(ctx, p, "This number is already registered.")
	}
	if err != nil {
		return err
	}
	logger.Info("participant_added", "by", p.ID, "number", number, "role", string(directory.RoleAgent))
	e.record(ctx, p, audit.Entry{
		Action:    audit.ActionParticipantAdded,
		SubjectID: directory.Address(number),
		Summary:   name + " added",
		NewValue:  string(directory.RoleAgent),
	})
	return e.finish(ctx, p, fmt.Sprintf("✅ Agent *%s* added!", name))
}

func (e *Engine) startRemoveAgent(ctx context.Context, p directory.Participant) error {
	return e.pickAgent(ctx, p, session.SelectAgentForRemoval{}, prefixRemove,
		"Which agent do you want to remove?", "There are no agents to remove.")
}

func (e *Engine) resolveRemoveAgent(ctx context.Context, p directory.Participant, in Input) error {
	id, ok := stripPrefix(in.Selection, prefixRemove)
	if !ok {
		return invalidReprompt("Please choose an agent from the list.")
	}
	agent, err := e.agent(ctx, id)
	if err != nil {
		return err
	}
	if agent == nil {
		return notFound("Agent", session.SelectAgentForRemoval{})
	}
	if err := e.removeParticipant(ctx, p, *agent); err != nil {
		return err
	}
	return e.finish(ctx, p, fmt.Sprintf("🗑️ Agent *%s* removed.", agent.Name))
}

// removeParticipant deletes a participant with their samples and session,
// and drops any open correction window they had.
func (e *Engine) removeParticipant(ctx context.Context, by directory.Participant, target directory.Participant) error {
	if _, err := e.directory.Delete(ctx, target.ID); err != nil {
		return err
	}
	e.corrections.Discard(target.ID)
	logger.Info("participant_removed", "by", by.ID, "participant", target.ID, "role", string(target.Role))
	e.record(ctx, by, audit.Entry{
		Action:        audit.ActionParticipantRemoved,
		SubjectID:     target.ID,
		Summary:       target.Name + " removed",
		PreviousValue: string(target.Role),
	})
	return nil
}

// --- clearance ---

func (e *Engine) startClearance(ctx context.Context, p directory.Participant) error {
	return e.pickAgent(ctx, p, session.SelectAgentForClearance{}, prefixClear,
		"Whose samples were returned?", "There are no agents registered.")
}

func (e *Engine) resolveClearanceTarget(ctx context.Context, p directory.Participant, in Input) error {
	id, ok := stripPrefix(in.Selection, prefixClear)
	if !ok {
		return invalidReprompt("Please choose an agent from the list.")
	}
	agent, err := e.agent(ctx, id)
	if err != nil {
		return err
	}
	if agent == nil {
		return notFound("Agent", session.SelectAgentForClearance{})
	}

	owned, err := e.samples.ListByOwner(ctx, agent.ID)
	if err != nil {
		return err
	}
	var ids []string
	for _, s := range owned {
		if s.Status.AwaitingDevolution() {
			ids = append(ids, s.ID)
		}
	}
	if len(ids) == 0 {
		return e.finish(ctx, p, fmt.Sprintf("*%s* has no pending samples.", agent.Name))
	}
	return e.askClearance(ctx, p, session.ConfirmClearance{AgentID: agent.ID, SampleIDs: ids})
}

func (e *Engine) askClearance(ctx context.Context, p directory.Participant, st session.ConfirmClearance) error {
	agent, err := e.agent(ctx, st.AgentID)
	if err != nil {
		return err
	}
	if agent == nil {
		return e.startClearance(ctx, p)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Select the samples from *%s* that were returned:\n\n", agent.Name)
	for i, id := range st.SampleIDs {
		label := "removed"
		s, err := e.samples.Get(ctx, id)
		if err != nil {
			return err
		}
		if s != nil {
			label = s.Status.Label()
		}
		fmt.Fprintf(&b, "*%d* - ID ...%s (%s)\n", i+1, shortID(id), label)
	}
	b.WriteString("\nReply with the *numbers* of the samples to clear, separated by commas (e.g. 1, 3).")

	if err := e.sessions.Put(ctx, p.ID, st); err != nil {
		return err
	}
	e.reply(ctx, p.ID, text(b.String()))
	return nil
}

func (e *Engine) resolveClearance(ctx context.Context, p directory.Participant, st session.ConfirmClearance, in Input) error {
	picks := parseSelections(in.Text, len(st.SampleIDs))
	if len(picks) == 0 {
		return invalid(fmt.Sprintf("No valid sample was selected. Reply with numbers between 1 and %d, separated by commas.", len(st.SampleIDs)))
	}
	agent, err := e.agent(ctx, st.AgentID)
	if err != nil {
		return err
	}
	if agent == nil {
		return notFound("Agent", session.SelectAgentForClearance{})
	}

	cleared := 0
	for _, n := range picks {
		removed, err := e.samples.DeleteClearable(ctx, st.SampleIDs[n-1])
		if err != nil {
			return err
		}
		if removed {
			cleared++
		}
	}
	logger.Info("samples_cleared", "by", p.ID, "agent", agent.ID, "count", cleared)
	e.record(ctx, p, audit.Entry{
		Action:    audit.ActionSamplesCleared,
		SubjectID: agent.ID,
		Summary:   fmt.Sprintf("%d sample(s) of %s cleared", cleared, agent.Name),
		NewValue:  strconv.Itoa(cleared),
	})
	if cleared == 0 {
		return e.finish(ctx, p, "None of the selected samples could be cleared; they were already resolved or removed.")
	}
	return e.finish(ctx, p, fmt.Sprintf("✅ *%d* sample(s) from *%s* cleared.", cleared, agent.Name))
}

// --- shared helpers ---

// agent returns the participant only if they exist and are an agent.
func (e *Engine) agent(ctx context.Context, id string) (*directory.Participant, error) {
	a, err := e.directory.Get(ctx, id)
	if err != nil || a == nil || a.Role != directory.RoleAgent {
		return nil, err
	}
	return a, nil
}

// pickAgent shows every agent as a list under prefix and moves to st.
func (e *Engine) pickAgent(ctx context.Context, p directory.Participant, st session.State, prefix, question, empty string) error {
	agents, err := e.directory.ListByRole(ctx, directory.RoleAgent)
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		return e.finish(ctx, p, empty)
	}
	rows := make([]transport.Row, 0, len(agents))
	for _, a := range agents {
		rows = append(rows, transport.Row{ID: prefix + a.ID, Title: a.Name, Description: a.Number()})
	}
	if err := e.sessions.Put(ctx, p.ID, st); err != nil {
		return err
	}
	e.reply(ctx, p.ID, list(question, "Select", "Agents", rows...))
	return nil
}
