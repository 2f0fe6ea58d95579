package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SimpleDioney/Amostras/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:            "test-1",
		ActorID:       "100@c.us",
		Action:        ActionSamplesDelivered,
		SubjectID:     "200@c.us",
		Summary:       "3 samples delivered",
		PreviousValue: "",
		NewValue:      "3",
	}
	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "test-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("entry not found")
	}
	if got.ActorType != ActorParticipant {
		t.Errorf("ActorType = %q, want default %q", got.ActorType, ActorParticipant)
	}
	if got.Action != ActionSamplesDelivered || got.SubjectID != "200@c.us" {
		t.Errorf("got %+v", got)
	}
	if got.PreviousValue != "" || got.NewValue != "3" {
		t.Errorf("values = %q -> %q", got.PreviousValue, got.NewValue)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp not parsed")
	}
}

func TestLogGeneratesUUID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{ActorID: "x", Action: ActionSettingsReloaded}); err != nil {
		t.Fatal(err)
	}
	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || len(entries[0].ID) != 36 {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestQueryFilters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, e := range []Entry{
		{ActorID: "a", Action: ActionParticipantAdded, SubjectID: "s1"},
		{ActorID: "a", Action: ActionDevolutionFinal, SubjectID: "s2"},
		{ActorID: "b", Action: ActionDevolutionFinal, SubjectID: "s2"},
		{ActorType: ActorCLI, ActorID: "cli", Action: ActionSettingChanged, SubjectID: "overdue_days"},
	} {
		if err := store.Log(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter QueryFilter
		want   int
	}{
		{"all", QueryFilter{}, 4},
		{"actor", QueryFilter{ActorID: "a"}, 2},
		{"action", QueryFilter{Action: ActionDevolutionFinal}, 2},
		{"subject", QueryFilter{SubjectID: "s2"}, 2},
		{"combined", QueryFilter{ActorID: "b", SubjectID: "s2"}, 1},
		{"limit", QueryFilter{Limit: 3}, 3},
		{"offset", QueryFilter{Limit: 3, Offset: 3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestQueryNewestFirst(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	store.Log(ctx, Entry{ID: "first", ActorID: "a", Action: ActionSamplesDelivered})
	store.Log(ctx, Entry{ID: "second", ActorID: "a", Action: ActionSamplesCleared})

	got, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "second" {
		t.Errorf("order = %+v", got)
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.db.ExecContext(ctx,
		"INSERT INTO audit_entries (id, timestamp, actor_type, actor_id, action) VALUES ('old', '2020-01-01 00:00:00', 'system', 'x', 'samples_cleared')"); err != nil {
		t.Fatal(err)
	}
	store.Log(ctx, Entry{ID: "new", ActorID: "x", Action: ActionSamplesCleared})

	n, err := store.DeleteBefore(ctx, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
	if e, _ := store.GetByID(ctx, "new"); e == nil {
		t.Error("recent entry deleted")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := setupStore(t)
	e, err := store.GetByID(context.Background(), "missing")
	if err != nil || e != nil {
		t.Errorf("got %+v, %v", e, err)
	}
}

func TestHTTPQuery(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	store.Log(ctx, Entry{ID: "e1", ActorID: "a", Action: ActionParticipantRemoved, SubjectID: "s"})
	store.Log(ctx, Entry{ID: "e2", ActorID: "b", Action: ActionParticipantAdded})

	r := chi.NewRouter()
	RegisterRoutes(r, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/audit/?actor=a", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var entries []Entry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "e1" {
		t.Errorf("entries = %+v", entries)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/audit/?since=yesterday", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad since: status = %d", w.Code)
	}
}

func TestHTTPGetByID(t *testing.T) {
	store := setupStore(t)
	store.Log(context.Background(), Entry{ID: "e1", ActorID: "a", Action: ActionSettingChanged})

	r := chi.NewRouter()
	RegisterRoutes(r, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/audit/e1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var e Entry
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatal(err)
	}
	if e.Action != ActionSettingChanged {
		t.Errorf("action = %q", e.Action)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/audit/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
