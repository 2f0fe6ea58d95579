package session

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/SimpleDioney/Amostras/internal/db"
	"github.com/SimpleDioney/Amostras/internal/ledger"
)

func setupTestStore(t *testing.T) (*Store, *db.DB) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if _, err := database.Exec("INSERT INTO participants (id, name, role) VALUES ('1@c.us', 'Ana', 'agent')"); err != nil {
		t.Fatal(err)
	}
	return NewStore(database), database
}

func TestEncodeDecodeEveryStep(t *testing.T) {
	states := []State{
		AddAgentInfo{},
		SelectAgentForRemoval{},
		SelectAgentForDelivery{},
		DeliveryQuantity{AgentID: "9@c.us"},
		SelectAgentForClearance{},
		ConfirmClearance{AgentID: "9@c.us", SampleIDs: []string{"a", "b"}},
		AdminSelectAgentForReport{},
		AdminAddUserInfo{},
		AdminAddUserRole{Name: "Ana", ParticipantID: "9@c.us"},
		AdminSelectUserForRemoval{},
		SelectSampleForDevolution{},
		SelectSampleForFollowUp{},
		CustomerName{SampleID: "s"},
		ContractClosed{SampleID: "s", CustomerName: "Acme"},
		NextAction{SampleID: "s", CustomerName: "Acme"},
		ClientReturned{SampleID: "s", CustomerName: "Acme"},
		FollowUpContract{SampleID: "s", CustomerName: "Acme"},
		ClientFeedback{SampleID: "s", CustomerName: "Acme", Contract: ledger.ContractClosed},
		FollowUpDateChoice{SampleID: "s", CustomerName: "Acme", Contract: ledger.ContractNotClosed, Rescheduling: true},
		FollowUpDateManual{SampleID: "s", CustomerName: "Acme", Contract: ledger.ContractNotClosed},
	}
	seen := map[Step]bool{}
	for _, want := range states {
		step, payload, err := Encode(want)
		if err != nil {
			t.Fatalf("Encode(%T): %v", want, err)
		}
		if seen[step] {
			t.Errorf("step %q used twice", step)
		}
		seen[step] = true

		got, err := Decode(step, payload)
		if err != nil {
			t.Fatalf("Decode(%s): %v", step, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s: got %#v, want %#v", step, got, want)
		}
	}
}

func TestDecodeUnknownStep(t *testing.T) {
	_, err := Decode("awaiting_something_old", []byte("{}"))
	if !errors.Is(err, ErrUnknownStep) {
		t.Errorf("expected ErrUnknownStep, got %v", err)
	}
}

func TestStorePutGetClear(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	got, err := store.Get(ctx, "1@c.us")
	if err != nil || got != nil {
		t.Fatalf("empty Get = %v, %v", got, err)
	}

	if err := store.Put(ctx, "1@c.us", CustomerName{SampleID: "s1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, "1@c.us", ContractClosed{SampleID: "s1", CustomerName: "Acme"}); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	got, err = store.Get(ctx, "1@c.us")
	if err != nil {
		t.Fatal(err)
	}
	if want := (ContractClosed{SampleID: "s1", CustomerName: "Acme"}); got != want {
		t.Errorf("Get = %#v", got)
	}

	if err := store.Clear(ctx, "1@c.us"); err != nil {
		t.Fatal(err)
	}
	if got, _ := store.Get(ctx, "1@c.us"); got != nil {
		t.Errorf("after Clear: %#v", got)
	}
}

func TestStoreUnknownStoredStep(t *testing.T) {
	store, database := setupTestStore(t)
	if _, err := database.Exec("INSERT INTO session_state (participant_id, step, payload) VALUES ('1@c.us', 'legacy_step', '{}')"); err != nil {
		t.Fatal(err)
	}
	_, err := store.Get(context.Background(), "1@c.us")
	if !errors.Is(err, ErrUnknownStep) {
		t.Errorf("expected ErrUnknownStep, got %v", err)
	}
}

func TestSampleOf(t *testing.T) {
	if id, ok := SampleOf(ClientFeedback{SampleID: "x"}); !ok || id != "x" {
		t.Errorf("SampleOf(ClientFeedback) = %q, %v", id, ok)
	}
	if _, ok := SampleOf(DeliveryQuantity{}); ok {
		t.Error("SampleOf(DeliveryQuantity) reported a sample")
	}
}
