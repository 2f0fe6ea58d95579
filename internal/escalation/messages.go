package escalation

import (
	"fmt"

	"github.com/SimpleDioney/Amostras/internal/ledger"
)

func standardMessage(s ledger.Sample, received ledger.Date) string {
	return fmt.Sprintf("❗️ *RETURN OVERDUE* ❗️\n\n"+
		"Sample ...%s, received on %s, is still waiting for its return.\n\n"+
		"Please find a steward to return it.", s.ShortID(), received.Display())
}

func tierOneMessage(s ledger.Sample, days int) string {
	return fmt.Sprintf("⚠️ *RETURN VERY OVERDUE* ⚠️\n\n"+
		"Sample ...%s has been waiting for its return for *%d days*.\n\n"+
		"The return deadline has passed. Please find a steward urgently.", s.ShortID(), days)
}

func tierTwoMessage(s ledger.Sample, days int) string {
	return fmt.Sprintf("🚨 *MAXIMUM ATTENTION - RETURN OVERDUE* 🚨\n\n"+
		"Sample ...%s has been waiting for its return for *%d days*.\n\n"+
		"This is a final notice and your manager has been informed. Please settle it *immediately*.", s.ShortID(), days)
}

func escalationMessage(agent string, s ledger.Sample, days int) string {
	return fmt.Sprintf("*[MANAGER ALERT]*\nAgent *%s* has sample (...%s) overdue for %d days.", agent, s.ShortID(), days)
}

func followUpMessage(s ledger.Sample) string {
	return fmt.Sprintf("Reminder: you have a follow-up scheduled for today with client *%s*.\n\n"+
		"Start it by choosing \"Follow-up feedback\" in your menu.", s.CustomerName)
}
