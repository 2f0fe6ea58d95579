package conversation

import (
	"strconv"
	"strings"

	"github.com/SimpleDioney/Amostras/internal/directory"
	"github.com/SimpleDioney/Amostras/internal/transport"
)

// Input is one parsed inbound event.
type Input struct {
	// Text is the raw body, trimmed.
	Text string
	// Selection is the list row id, if the user picked one.
	Selection string
}

// ParseInput extracts the parts of an event the engine looks at.
func ParseInput(ev transport.InboundEvent) Input {
	return Input{Text: strings.TrimSpace(ev.Body), Selection: strings.TrimSpace(ev.SelectionID)}
}

// norm is the lower-cased, accent-free text used for keyword matching.
func (in Input) norm() string { return normalize(in.Text) }

var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u", "ü", "u",
	"ç", "c",
)

func normalize(s string) string {
	return accentFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// Command is a top-level action, from a global keyword or a menu.
type Command string

const (
	CmdNone    Command = ""
	CmdCancel  Command = "cancel"
	CmdCorrect Command = "correct"

	CmdDeliver     Command = "steward:deliver"
	CmdAddAgent    Command = "steward:add_agent"
	CmdRemoveAgent Command = "steward:remove_agent"
	CmdClear       Command = "steward:clear"

	CmdDevolution Command = "agent:devolution"
	CmdFollowUp   Command = "agent:followup"
	CmdMySamples  Command = "agent:list"

	CmdReportAll     Command = "admin:report_all"
	CmdReportAgent   Command = "admin:report_agent"
	CmdReportOverdue Command = "admin:report_overdue"
	CmdAddUser       Command = "admin:add_user"
	CmdRemoveUser    Command = "admin:remove_user"
	CmdReloadConfig  Command = "admin:reload_settings"
)

// Global keywords must match the whole message.
var (
	cancelWords  = []string{"cancelar", "sair", "cancel", "exit"}
	correctWords = []string{"corrigir", "correct", "undo"}
)

// globalCommand recognises the commands that apply at any step.
func globalCommand(in Input) Command {
	switch in.Selection {
	case string(CmdCancel):
		return CmdCancel
	case string(CmdCorrect):
		return CmdCorrect
	}
	text := in.norm()
	for _, w := range cancelWords {
		if text == w {
			return CmdCancel
		}
	}
	for _, w := range correctWords {
		if text == w {
			return CmdCorrect
		}
	}
	return CmdNone
}

// keyword maps free text containing any of words to cmd. Tables are
// scanned in order, so more specific entries come first.
type keyword struct {
	cmd   Command
	words []string
}

var menuKeywords = map[directory.Role][]keyword{
	directory.RoleSteward: {
		{CmdDeliver, []string{"entregar", "deliver"}},
		{CmdAddAgent, []string{"adicionar", "add"}},
		{CmdRemoveAgent, []string{"remover", "remove"}},
		{CmdClear, []string{"limpar", "clear"}},
	},
	directory.RoleAgent: {
		{CmdFollowUp, []string{"follow-up", "followup", "follow up"}},
		{CmdDevolution, []string{"devolutiva", "devolucao", "feedback"}},
		{CmdMySamples, []string{"consultar", "minhas amostras", "my samples", "samples"}},
	},
	directory.RoleAdmin: {
		{CmdReportOverdue, []string{"atrasad", "overdue"}},
		{CmdReportAgent, []string{"por vendedor", "by agent", "agent report"}},
		{CmdReportAll, []string{"relatorio", "report"}},
		{CmdAddUser, []string{"adicionar", "add"}},
		{CmdRemoveUser, []string{"remover", "remove"}},
		{CmdReloadConfig, []string{"recarregar", "reload"}},
	},
}

// menuCommand resolves a role menu choice. A selection id wins over text.
func menuCommand(role directory.Role, in Input) Command {
	table := menuKeywords[role]
	if in.Selection != "" {
		for _, k := range table {
			if in.Selection == string(k.cmd) {
				return k.cmd
			}
		}
		return CmdNone
	}
	text := in.norm()
	if text == "" {
		return CmdNone
	}
	for _, k := range table {
		for _, w := range k.words {
			if strings.Contains(text, w) {
				return k.cmd
			}
		}
	}
	return CmdNone
}

// Selection prefixes, one per action family.
const (
	prefixRemove      = "remove:"
	prefixDeliver     = "deliver:"
	prefixClear       = "clear:"
	prefixReport      = "report:"
	prefixAdminRemove = "admin-remove:"
	prefixRole        = "role:"
	prefixSample      = "sample:"
	prefixFollowUp    = "followup:"
)

// stripPrefix returns the entity id of a namespaced selection. ok is false
// when the selection belongs to another family or is empty.
func stripPrefix(selection, prefix string) (string, bool) {
	id, ok := strings.CutPrefix(selection, prefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// option is one answer of a fixed-choice step.
type option struct {
	id      string
	aliases []string
}

// choose matches input against a step's options: the selection id first,
// then whole-message aliases.
func choose(in Input, opts []option) (string, bool) {
	if in.Selection != "" {
		for _, o := range opts {
			if in.Selection == o.id {
				return o.id, true
			}
		}
	}
	text := in.norm()
	if text == "" {
		return "", false
	}
	for _, o := range opts {
		for _, a := range o.aliases {
			if text == a {
				return o.id, true
			}
		}
	}
	return "", false
}

// Step option ids.
const (
	optContractYes   = "contract:yes"
	optContractNo    = "contract:no"
	optFinalFeedback = "next:feedback"
	optScheduleFU    = "next:followup"
	optReturnedYes   = "returned:yes"
	optReturnedNo    = "returned:no"
	optFUContractYes = "fucontract:yes"
	optFUContractNo  = "fucontract:no"
	optDateManual    = "date:manual"
)

var (
	yesAliases = []string{"sim", "s", "yes", "y"}
	noAliases  = []string{"nao", "n", "no"}

	contractOptions = []option{
		{optContractYes, yesAliases},
		{optContractNo, noAliases},
	}
	nextActionOptions = []option{
		{optFinalFeedback, []string{"feedback", "feedback final", "ja tenho o feedback final"}},
		{optScheduleFU, []string{"follow-up", "followup", "agendar", "schedule"}},
	}
	returnedOptions = []option{
		{optReturnedYes, yesAliases},
		{optReturnedNo, noAliases},
	}
	followUpContractOptions = []option{
		{optFUContractYes, yesAliases},
		{optFUContractNo, noAliases},
	}
	roleOptions = []option{
		{prefixRole + string(directory.RoleAgent), []string{"agent", "vendedor"}},
		{prefixRole + string(directory.RoleSteward), []string{"steward", "camarista"}},
		{prefixRole + string(directory.RoleAdmin), []string{"admin"}},
	}
)

// dateOption is a preset follow-up offset.
type dateOption struct {
	days  int
	title string
}

var dateOptions = []dateOption{
	{1, "Tomorrow"},
	{2, "In 2 days"},
	{7, "In 7 days"},
	{15, "In 15 days"},
}

// rescheduleMaxDays drops the longest preset when rescheduling.
const rescheduleMaxDays = 7

func dateOptionID(days int) string { return "date:" + strconv.Itoa(days) }

// presetDays resolves a preset date choice.
func presetDays(in Input, rescheduling bool) (int, bool) {
	for _, d := range dateOptions {
		if rescheduling && d.days > rescheduleMaxDays {
			continue
		}
		if in.Selection == dateOptionID(d.days) || in.norm() == normalize(d.title) {
			return d.days, true
		}
	}
	return 0, false
}

// parseSelections parses "1, 3" style replies into distinct positions
// within [1, max].
func parseSelections(text string, max int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, part := range strings.Split(text, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 || n > max || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
