package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SimpleDioney/Amostras/internal/db"
)

// Store persists session state per participant.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Get returns the participant's current step, or nil if they are not in a
// flow. A stored step this build does not know yields ErrUnknownStep.
func (s *Store) Get(ctx context.Context, participantID string) (State, error) {
	return GetTx(ctx, s.db, participantID)
}

// Put replaces the participant's current step.
func (s *Store) Put(ctx context.Context, participantID string, state State) error {
	return PutTx(ctx, s.db, participantID, state)
}

// Clear removes the participant's session state.
func (s *Store) Clear(ctx context.Context, participantID string) error {
	return ClearTx(ctx, s.db, participantID)
}

// GetTx is Get against an arbitrary querier.
func GetTx(ctx context.Context, q db.Querier, participantID string) (State, error) {
	var (
		step    string
		payload string
	)
	err := q.QueryRowContext(ctx,
		"SELECT step, payload FROM session_state WHERE participant_id = ?", participantID).
		Scan(&step, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying session state: %w", err)
	}
	return Decode(Step(step), []byte(payload))
}

// PutTx is Put against an arbitrary querier. A nil state clears.
func PutTx(ctx context.Context, q db.Querier, participantID string, state State) error {
	if state == nil {
		return ClearTx(ctx, q, participantID)
	}
	step, payload, err := Encode(state)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `INSERT INTO session_state (participant_id, step, payload, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(participant_id) DO UPDATE SET
			step = excluded.step, payload = excluded.payload, updated_at = excluded.updated_at`,
		participantID, string(step), string(payload))
	if err != nil {
		return fmt.Errorf("saving session state: %w", err)
	}
	return nil
}

// ClearTx is Clear against an arbitrary querier.
func ClearTx(ctx context.Context, q db.Querier, participantID string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM session_state WHERE participant_id = ?", participantID); err != nil {
		return fmt.Errorf("clearing session state: %w", err)
	}
	return nil
}
