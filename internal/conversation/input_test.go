package conversation

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/SimpleDioney/Amostras/internal/directory"
	"github.com/SimpleDioney/Amostras/internal/session"
)

func TestGlobalCommand(t *testing.T) {
	tests := []struct {
		in   Input
		want Command
	}{
		{Input{Text: "Cancelar"}, CmdCancel},
		{Input{Text: " sair "}, CmdCancel},
		{Input{Text: "EXIT"}, CmdCancel},
		{Input{Selection: "cancel"}, CmdCancel},
		{Input{Text: "corrigir"}, CmdCorrect},
		{Input{Text: "undo"}, CmdCorrect},
		{Input{Selection: "correct"}, CmdCorrect},
		{Input{Text: "quero cancelar a amostra"}, CmdNone},
		{Input{Text: "Acme"}, CmdNone},
	}
	for _, tt := range tests {
		if got := globalCommand(tt.in); got != tt.want {
			t.Errorf("globalCommand(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMenuCommand(t *testing.T) {
	tests := []struct {
		role directory.Role
		in   Input
		want Command
	}{
		{directory.RoleSteward, Input{Text: "Entregar amostras"}, CmdDeliver},
		{directory.RoleSteward, Input{Selection: string(CmdClear)}, CmdClear},
		{directory.RoleSteward, Input{Selection: string(CmdReportAll)}, CmdNone},
		{directory.RoleAgent, Input{Text: "Devolução"}, CmdDevolution},
		{directory.RoleAgent, Input{Text: "follow up"}, CmdFollowUp},
		{directory.RoleAgent, Input{Text: "minhas amostras"}, CmdMySamples},
		{directory.RoleAdmin, Input{Text: "relatório de atrasadas"}, CmdReportOverdue},
		{directory.RoleAdmin, Input{Text: "relatorio"}, CmdReportAll},
		{directory.RoleAdmin, Input{Text: "recarregar"}, CmdReloadConfig},
		{directory.RoleAdmin, Input{Text: "bom dia"}, CmdNone},
	}
	for _, tt := range tests {
		if got := menuCommand(tt.role, tt.in); got != tt.want {
			t.Errorf("menuCommand(%s, %+v) = %q, want %q", tt.role, tt.in, got, tt.want)
		}
	}
}

func TestStripPrefix(t *testing.T) {
	if id, ok := stripPrefix("deliver:1@c.us", prefixDeliver); !ok || id != "1@c.us" {
		t.Errorf("got %q, %v", id, ok)
	}
	if _, ok := stripPrefix("remove:1@c.us", prefixDeliver); ok {
		t.Error("accepted a selection from another family")
	}
	if _, ok := stripPrefix(prefixDeliver, prefixDeliver); ok {
		t.Error("accepted an empty id")
	}
}

func TestParseSelections(t *testing.T) {
	tests := []struct {
		text string
		max  int
		want []int
	}{
		{"1, 3", 3, []int{1, 3}},
		{"2,2,1", 3, []int{2, 1}},
		{"0, 4, x", 3, nil},
		{"", 3, nil},
	}
	for _, tt := range tests {
		if got := parseSelections(tt.text, tt.max); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseSelections(%q, %d) = %v, want %v", tt.text, tt.max, got, tt.want)
		}
	}
}

func TestPresetDays(t *testing.T) {
	if d, ok := presetDays(Input{Selection: dateOptionID(15)}, false); !ok || d != 15 {
		t.Errorf("got %d, %v", d, ok)
	}
	if _, ok := presetDays(Input{Selection: dateOptionID(15)}, true); ok {
		t.Error("15 days accepted while rescheduling")
	}
	if d, ok := presetDays(Input{Text: "tomorrow"}, true); !ok || d != 1 {
		t.Errorf("got %d, %v", d, ok)
	}
}

func TestChooseFallsBackToAliases(t *testing.T) {
	if got, ok := choose(Input{Text: "Não"}, contractOptions); !ok || got != optContractNo {
		t.Errorf("got %q, %v", got, ok)
	}
	if got, ok := choose(Input{Selection: optContractYes, Text: "whatever"}, contractOptions); !ok || got != optContractYes {
		t.Errorf("got %q, %v", got, ok)
	}
	if _, ok := choose(Input{Text: "maybe"}, contractOptions); ok {
		t.Error("accepted an unknown answer")
	}
}

func TestPromptCoversTextSteps(t *testing.T) {
	steps := []session.State{
		session.AddAgentInfo{},
		session.AdminAddUserInfo{},
		session.AdminAddUserRole{Name: "Fabio"},
		session.CustomerName{SampleID: "abcdef123456"},
		session.ContractClosed{},
		session.NextAction{},
		session.ClientReturned{CustomerName: "Acme"},
		session.FollowUpContract{},
		session.ClientFeedback{},
		session.FollowUpDateChoice{},
		session.FollowUpDateManual{},
	}
	for _, st := range steps {
		if _, ok := Prompt(st); !ok {
			t.Errorf("no prompt for %s", st.Step())
		}
	}
	if _, ok := Prompt(session.SelectAgentForDelivery{}); ok {
		t.Error("list steps are built from the stores")
	}
	if msg, _ := Prompt(session.CustomerName{SampleID: "abcdef123456"}); !strings.Contains(msg.Text, "...123456") {
		t.Errorf("customer prompt = %q", msg.Text)
	}
}

func TestFormatWindow(t *testing.T) {
	tests := map[time.Duration]string{
		30 * time.Second: "30 s",
		5 * time.Minute:  "5 min",
		90 * time.Second: "1.5 min",
	}
	for d, want := range tests {
		if got := formatWindow(d); got != want {
			t.Errorf("formatWindow(%s) = %q, want %q", d, got, want)
		}
	}
}
