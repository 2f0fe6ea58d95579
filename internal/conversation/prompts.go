package conversation

import (
	"fmt"
	"time"

	"github.com/SimpleDioney/Amostras/internal/directory"
	"github.com/SimpleDioney/Amostras/internal/session"
	"github.com/SimpleDioney/Amostras/internal/transport"
)

// Message is one outbound reply: plain text or a list prompt.
type Message struct {
	Text string
	List *transport.ListMessage
}

func text(s string) Message { return Message{Text: s} }

func list(description, button, section string, rows ...transport.Row) Message {
	return Message{List: &transport.ListMessage{
		ButtonText:  button,
		Description: description,
		Sections:    []transport.Section{{Title: section, Rows: rows}},
	}}
}

// Prompt returns the question asked at a step. It depends on the state
// alone, so the forward flow and a correction re-issue the same prompt.
// Steps whose prompt needs fresh data from the stores return ok=false.
func Prompt(st session.State) (Message, bool) {
	switch s := st.(type) {
	case session.AddAgentInfo:
		return text("What is the agent's name and number?\n\nSend as: *Full Name, 5543...*"), true
	case session.AdminAddUserInfo:
		return text("What is the new user's name and number?\n\nSend as: *Full Name, 5543...*"), true
	case session.AdminAddUserRole:
		return list(fmt.Sprintf("Which role will *%s* have?", s.Name), "Select role", "Roles",
			transport.Row{ID: prefixRole + string(directory.RoleAgent), Title: directory.RoleAgent.Label(), Description: "Reports sample devolutions."},
			transport.Row{ID: prefixRole + string(directory.RoleSteward), Title: directory.RoleSteward.Label(), Description: "Delivers samples and manages agents."},
			transport.Row{ID: prefixRole + string(directory.RoleAdmin), Title: directory.RoleAdmin.Label(), Description: "Manages users and pulls reports."},
		), true
	case session.CustomerName:
		return text(fmt.Sprintf("Great! About sample *...%s*:\n\nWhich customer was it for?", shortID(s.SampleID))), true
	case session.ContractClosed:
		return list("Did you close a contract with this customer?", "Select", "Options",
			transport.Row{ID: optContractYes, Title: "Yes"},
			transport.Row{ID: optContractNo, Title: "No"},
		), true
	case session.NextAction:
		return list("Understood. What is the next step?", "Select", "Options",
			transport.Row{ID: optFinalFeedback, Title: "I already have the final feedback"},
			transport.Row{ID: optScheduleFU, Title: "I need to schedule a follow-up"},
		), true
	case session.ClientReturned:
		return list(fmt.Sprintf("Follow-up with *%s*.\nHas the client given final feedback?", s.CustomerName), "Select", "Options",
			transport.Row{ID: optReturnedYes, Title: "Yes (gave feedback)"},
			transport.Row{ID: optReturnedNo, Title: "No (reschedule)"},
		), true
	case session.FollowUpContract:
		return list("Understood. Was a contract closed this time?", "Select", "Options",
			transport.Row{ID: optFUContractYes, Title: "Yes, contract closed"},
			transport.Row{ID: optFUContractNo, Title: "No contract"},
		), true
	case session.ClientFeedback:
		return text("OK. What was the client's final feedback?"), true
	case session.FollowUpDateChoice:
		return dateChoice(s.Rescheduling), true
	case session.FollowUpDateManual:
		return text("OK. What date? (send as DD/MM/YYYY)"), true
	}
	return Message{}, false
}

func dateChoice(rescheduling bool) Message {
	description := "When will you follow up?"
	if rescheduling {
		description = "OK. When should the follow-up be rescheduled to?"
	}
	var rows []transport.Row
	for _, d := range dateOptions {
		if rescheduling && d.days > rescheduleMaxDays {
			continue
		}
		rows = append(rows, transport.Row{ID: dateOptionID(d.days), Title: d.title})
	}
	rows = append(rows, transport.Row{ID: optDateManual, Title: "Type a specific date"})
	return list(description, "Choose date", "Date options", rows...)
}

// Menu is the top-level list for a role.
func Menu(p directory.Participant) Message {
	greeting := fmt.Sprintf("Hello, *%s*! Choose an action.", p.Name)
	switch p.Role {
	case directory.RoleSteward:
		return list("Steward main menu", "Options", "Available actions",
			transport.Row{ID: string(CmdDeliver), Title: "🚚 Deliver samples"},
			transport.Row{ID: string(CmdAddAgent), Title: "➕ Add agent"},
			transport.Row{ID: string(CmdRemoveAgent), Title: "➖ Remove agent"},
			transport.Row{ID: string(CmdClear), Title: "🧹 Clear samples"},
		)
	case directory.RoleAgent:
		return list(greeting, "Options", "Sample actions",
			transport.Row{ID: string(CmdDevolution), Title: "✅ Give sample feedback"},
			transport.Row{ID: string(CmdFollowUp), Title: "🗣️ Give follow-up feedback"},
			transport.Row{ID: string(CmdMySamples), Title: "📋 My samples"},
		)
	case directory.RoleAdmin:
		return Message{List: &transport.ListMessage{
			ButtonText:  "Admin options",
			Description: greeting,
			Sections: []transport.Section{
				{Title: "Reports", Rows: []transport.Row{
					{ID: string(CmdReportAll), Title: "📊 General sample report"},
					{ID: string(CmdReportAgent), Title: "👨‍💼 Report by agent"},
					{ID: string(CmdReportOverdue), Title: "⏰ Overdue samples report"},
				}},
				{Title: "Management", Rows: []transport.Row{
					{ID: string(CmdAddUser), Title: "➕ Add user"},
					{ID: string(CmdRemoveUser), Title: "➖ Remove user"},
					{ID: string(CmdReloadConfig), Title: "🔄 Reload settings"},
				}},
			},
		}}
	}
	return text(greeting)
}

// correctionOffer is sent after a finalization with the single "correct"
// affordance.
func correctionOffer(summary string, window time.Duration) Message {
	return list(summary, "Options", "Waiting "+formatWindow(window)+" before the final report",
		transport.Row{ID: string(CmdCorrect), Title: "Correct feedback"},
	)
}

func formatWindow(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d s", int(d.Seconds()))
	}
	if d%time.Minute == 0 {
		return fmt.Sprintf("%d min", int(d.Minutes()))
	}
	return fmt.Sprintf("%.1f min", d.Minutes())
}

func shortID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[len(id)-6:]
}
