package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SimpleDioney/Amostras/internal/db"
)

// ErrExists is returned by Create when the address is already registered.
var ErrExists = errors.New("participant already registered")

// Store provides CRUD operations for participants.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create registers a new participant.
func (s *Store) Create(ctx context.Context, p Participant) error {
	if p.ID == "" || p.Name == "" {
		return fmt.Errorf("participant id and name are required")
	}
	if !p.Role.Valid() {
		return fmt.Errorf("invalid role %q", p.Role)
	}

	existing, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrExists
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO participants (id, name, role) VALUES (?, ?, ?)",
		p.ID, p.Name, string(p.Role))
	if err != nil {
		return fmt.Errorf("inserting participant: %w", err)
	}
	return nil
}

// Get returns the participant with the given address, or nil if none.
func (s *Store) Get(ctx context.Context, id string) (*Participant, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, role, created_at FROM participants WHERE id = ?", id)
	p, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying participant: %w", err)
	}
	return p, nil
}

// List returns every participant ordered by name.
func (s *Store) List(ctx context.Context) ([]Participant, error) {
	return s.query(ctx, "SELECT id, name, role, created_at FROM participants ORDER BY name")
}

// ListByRole returns participants with the given role ordered by name.
func (s *Store) ListByRole(ctx context.Context, role Role) ([]Participant, error) {
	return s.query(ctx,
		"SELECT id, name, role, created_at FROM participants WHERE role = ? ORDER BY name", string(role))
}

// ListExcept returns every participant except id.
func (s *Store) ListExcept(ctx context.Context, id string) ([]Participant, error) {
	return s.query(ctx,
		"SELECT id, name, role, created_at FROM participants WHERE id != ? ORDER BY name", id)
}

// Update changes a participant's name and role.
func (s *Store) Update(ctx context.Context, id, name string, role Role) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE participants SET name = ?, role = ? WHERE id = ?", name, string(role), id)
	if err != nil {
		return fmt.Errorf("updating participant: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("participant %s not found", id)
	}
	return nil
}

// Delete removes a participant together with their samples and session
// state. The cascade is done explicitly in one transaction rather than
// relying on the engine's foreign key support. It reports whether the
// participant existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM samples WHERE owner_id = ?", id); err != nil {
			return fmt.Errorf("deleting samples: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM session_state WHERE participant_id = ?", id); err != nil {
			return fmt.Errorf("deleting session state: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM participants WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting participant: %w", err)
		}
		n, _ := res.RowsAffected()
		removed = n > 0
		return nil
	})
	return removed, err
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Participant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying participants: %w", err)
	}
	defer rows.Close()

	var result []Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanParticipant(sc scanner) (*Participant, error) {
	var (
		p    Participant
		role string
		ts   string
	)
	if err := sc.Scan(&p.ID, &p.Name, &role, &ts); err != nil {
		return nil, err
	}
	p.Role = Role(role)
	if t, err := time.Parse(time.DateTime, ts); err == nil {
		p.CreatedAt = t
	} else if t, err := time.Parse(time.RFC3339, ts); err == nil {
		p.CreatedAt = t
	}
	return &p, nil
}
