package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SimpleDioney/Amostras/internal/audit"
	"github.com/SimpleDioney/Amostras/internal/directory"
	"github.com/SimpleDioney/Amostras/internal/ledger"
	"github.com/SimpleDioney/Amostras/internal/logger"
	"github.com/SimpleDioney/Amostras/internal/report"
	"github.com/SimpleDioney/Amostras/internal/session"
	"github.com/SimpleDioney/Amostras/internal/transport"
)

const xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// sendReport exports the samples matching filter and sends the workbook
// back to the participant.
func (e *Engine) sendReport(ctx context.Context, p directory.Participant, filter ledger.Filter, subject, progress, caption string) error {
	e.reply(ctx, p.ID, text(progress))

	rows, err := e.samples.ReportRows(ctx, filter)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return e.finish(ctx, p, "No samples match this report.")
	}
	data, err := report.ExportBytes(rows, report.Options{Location: e.loc})
	if err != nil {
		return err
	}

	file := transport.File{
		Name:     report.FileName(subject),
		Caption:  caption,
		MimeType: xlsxMimeType,
		Data:     data,
	}
	if err := e.sender.SendFile(ctx, p.ID, file); err != nil {
		logger.Warn("report_send_failed", "to", p.ID, "report", file.Name, "error", err)
		return e.finish(ctx, p, "⚠️ The report could not be sent. Please try again.")
	}
	logger.Info("report_sent", "to", p.ID, "report", file.Name, "rows", len(rows))
	return e.finish(ctx, p, "")
}

func (e *Engine) startAgentReport(ctx context.Context, p directory.Participant) error {
	return e.pickAgent(ctx, p, session.AdminSelectAgentForReport{}, prefixReport,
		"Which agent's report do you want?", "There are no agents registered.")
}

func (e *Engine) resolveAgentReport(ctx context.Context, p directory.Participant, in Input) error {
	id, ok := stripPrefix(in.Selection, prefixReport)
	if !ok {
		return invalidReprompt("Please choose an agent from the list.")
	}
	agent, err := e.agent(ctx, id)
	if err != nil {
		return err
	}
	if agent == nil {
		return notFound("Agent", session.AdminSelectAgentForReport{})
	}
	return e.sendReport(ctx, p, ledger.Filter{OwnerID: agent.ID}, agent.Name,
		fmt.Sprintf("⚙️ Generating the report for *%s*...", agent.Name),
		fmt.Sprintf("📄 Here is the report for *%s*.", agent.Name))
}

func (e *Engine) resolveAddUserInfo(ctx context.Context, p directory.Participant, in Input) error {
	name, number, ok := directory.ParseNameAndNumber(in.Text)
	if !ok {
		return invalid("Invalid format. Send: *Full Name, 5543...*")
	}
	id := directory.Address(number)
	existing, err := e.directory.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing != nil {
		return e.finish(ctx, p, fmt.Sprintf("The user with number %s already exists as \"%s\" (%s).",
			number, existing.Name, existing.Role.Label()))
	}
	return e.enter(ctx, p, session.AdminAddUserRole{Name: name, ParticipantID: id})
}

func (e *Engine) resolveAddUserRole(ctx context.Context, p directory.Participant, st session.AdminAddUserRole, in Input) error {
	choice, ok := choose(in, roleOptions)
	if !ok {
		return invalidReprompt("Invalid selection. Please choose a role from the list.")
	}
	role := directory.Role(strings.TrimPrefix(choice, prefixRole))

	err := e.directory.Create(ctx, directory.Participant{ID: st.ParticipantID, Name: st.Name, Role: role})
	if errors.Is(err, directory.ErrExists) {
		return e.finish(ctx, p, "This number was registered in the meantime.")
	}
	if err != nil {
		return err
	}
	logger.Info("participant_added", "by", p.ID, "participant", st.ParticipantID, "role", string(role))
	e.record(ctx, p, audit.Entry{
		Action:    audit.ActionParticipantAdded,
		SubjectID: st.ParticipantID,
		Summary:   st.Name + " added",
		NewValue:  string(role),
	})
	return e.finish(ctx, p, fmt.Sprintf("✅ User *%s* added as *%s*!", st.Name, role.Label()))
}

func (e *Engine) startRemoveUser(ctx context.Context, p directory.Participant) error {
	users, err := e.directory.ListExcept(ctx, p.ID)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return e.finish(ctx, p, "There are no other users to remove.")
	}
	rows := make([]transport.Row, 0, len(users))
	for _, u := range users {
		rows = append(rows, transport.Row{
			ID:          prefixAdminRemove + u.ID,
			Title:       u.Name,
			Description: fmt.Sprintf("%s | %s", u.Role.Label(), u.Number()),
		})
	}
	if err := e.sessions.Put(ctx, p.ID, session.AdminSelectUserForRemoval{}); err != nil {
		return err
	}
	e.reply(ctx, p.ID, list("Which user do you want to remove?", "Select user", "Registered users", rows...))
	return nil
}

func (e *Engine) resolveRemoveUser(ctx context.Context, p directory.Participant, in Input) error {
	id, ok := stripPrefix(in.Selection, prefixAdminRemove)
	if !ok {
		return invalidReprompt("Please choose a user from the list.")
	}
	if id == p.ID {
		return invalidReprompt("You cannot remove yourself.")
	}
	target, err := e.directory.Get(ctx, id)
	if err != nil {
		return err
	}
	if target == nil {
		return notFound("User", session.AdminSelectUserForRemoval{})
	}
	if err := e.removeParticipant(ctx, p, *target); err != nil {
		return err
	}
	return e.finish(ctx, p, fmt.Sprintf("🗑️ User *%s* removed.", target.Name))
}

func (e *Engine) reloadSettings(ctx context.Context, p directory.Participant) error {
	snap, err := e.settings.Reload(ctx)
	if err != nil {
		return err
	}
	logger.Info("settings_reloaded", "by", p.ID)
	e.record(ctx, p, audit.Entry{Action: audit.ActionSettingsReloaded, Summary: "settings reloaded from the database"})

	var b strings.Builder
	b.WriteString("🔄 Settings reloaded:\n")
	fmt.Fprintf(&b, "\n• Overdue after: *%d days*", snap.OverdueDays)
	fmt.Fprintf(&b, "\n• Correction window: *%s*", formatWindow(snap.CorrectionWindow()))
	fmt.Fprintf(&b, "\n• Reminder tiers: *%d* and *%d days*", snap.ReminderTier1Days, snap.ReminderTier2Days)
	contact := snap.OversightContact
	if contact == "" {
		contact = "not set"
	}
	fmt.Fprintf(&b, "\n• Oversight contact: *%s*", contact)
	return e.finish(ctx, p, b.String())
}
