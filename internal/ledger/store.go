package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SimpleDioney/Amostras/internal/db"
)

const sampleColumns = "id, owner_id, status, received_at, customer_name, contract_closed, follow_up_date, follow_up_notified, client_feedback"

// Store provides persistence for samples.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateBatch records n new samples for ownerID, all received at the same
// instant. Either every sample is created or none is.
func (s *Store) CreateBatch(ctx context.Context, ownerID string, n int, receivedAt time.Time) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", n)
	}
	var ids []string
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		ids, err = CreateBatchTx(ctx, tx, ownerID, n, receivedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CreateBatchTx inserts the batch through q, which should be a transaction
// so that a failure part way leaves nothing behind.
func CreateBatchTx(ctx context.Context, q db.Querier, ownerID string, n int, receivedAt time.Time) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", n)
	}
	ts := formatInstant(receivedAt)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.New().String()
		if _, err := q.ExecContext(ctx,
			"INSERT INTO samples (id, owner_id, status, received_at) VALUES (?, ?, ?, ?)",
			id, ownerID, string(StatusPendingFeedback), ts); err != nil {
			return nil, fmt.Errorf("inserting sample %d of %d: %w", i+1, n, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Get returns the sample with the given id, or nil if none.
func (s *Store) Get(ctx context.Context, id string) (*Sample, error) {
	return GetTx(ctx, s.db, id)
}

// GetTx is Get against an arbitrary querier.
func GetTx(ctx context.Context, q db.Querier, id string) (*Sample, error) {
	row := q.QueryRowContext(ctx, "SELECT "+sampleColumns+" FROM samples WHERE id = ?", id)
	sample, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying sample: %w", err)
	}
	return sample, nil
}

// ListByOwner returns every sample owned by ownerID, oldest first.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]Sample, error) {
	return s.List(ctx, Filter{OwnerID: ownerID})
}

// List returns samples matching the filter, oldest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Sample, error) {
	where, args := f.clause("")
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sampleColumns+" FROM samples"+where+" ORDER BY received_at, id", args...)
	if err != nil {
		return nil, fmt.Errorf("querying samples: %w", err)
	}
	defer rows.Close()

	var result []Sample
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		result = append(result, *sample)
	}
	return result, rows.Err()
}

// Update overwrites every mutable field of the sample keyed by s.ID.
func (s *Store) Update(ctx context.Context, sample Sample) error {
	return UpdateTx(ctx, s.db, sample)
}

// UpdateTx is Update against an arbitrary querier.
func UpdateTx(ctx context.Context, q db.Querier, sample Sample) error {
	if !sample.Status.Valid() {
		return fmt.Errorf("invalid status %q", sample.Status)
	}
	res, err := q.ExecContext(ctx, `UPDATE samples SET
		status = ?, customer_name = ?, contract_closed = ?, follow_up_date = ?,
		follow_up_notified = ?, client_feedback = ?
		WHERE id = ?`,
		string(sample.Status),
		nullString(sample.CustomerName),
		contractValue(sample.Contract),
		nullString(sample.FollowUpDate.String()),
		boolInt(sample.FollowUpNotified),
		nullString(sample.ClientFeedback),
		sample.ID)
	if err != nil {
		return fmt.Errorf("updating sample: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("sample %s not found", sample.ID)
	}
	return nil
}

// OwnersAwaitingDevolution returns the set of owners holding at least one
// pending_feedback or overdue sample.
func (s *Store) OwnersAwaitingDevolution(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT owner_id FROM samples WHERE status IN (?, ?)",
		string(StatusPendingFeedback), string(StatusOverdue))
	if err != nil {
		return nil, fmt.Errorf("querying sample owners: %w", err)
	}
	defer rows.Close()

	owners := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning sample owner: %w", err)
		}
		owners[id] = true
	}
	return owners, rows.Err()
}

// DeleteClearable removes a sample the steward has physically received
// back. Only pending_feedback and overdue samples qualify; it reports
// whether a row was removed.
func (s *Store) DeleteClearable(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM samples WHERE id = ? AND status IN (?, ?)",
		id, string(StatusPendingFeedback), string(StatusOverdue))
	if err != nil {
		return false, fmt.Errorf("deleting sample: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// PromoteOverdue moves every pending_feedback sample received before the
// given instant to overdue and returns how many changed.
func (s *Store) PromoteOverdue(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE samples SET status = ? WHERE status = ? AND received_at < ?",
		string(StatusOverdue), string(StatusPendingFeedback), formatInstant(before))
	if err != nil {
		return 0, fmt.Errorf("promoting overdue samples: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DueFollowUps returns awaiting_client_response samples whose follow-up date
// is on or before today and whose reminder has not been sent.
func (s *Store) DueFollowUps(ctx context.Context, today Date) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sampleColumns+` FROM samples
		WHERE status = ? AND follow_up_notified = 0
		AND follow_up_date IS NOT NULL AND follow_up_date <= ?
		ORDER BY follow_up_date, id`,
		string(StatusAwaitingClient), today.String())
	if err != nil {
		return nil, fmt.Errorf("querying due follow-ups: %w", err)
	}
	defer rows.Close()

	var result []Sample
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		result = append(result, *sample)
	}
	return result, rows.Err()
}

// ClaimFollowUpReminder marks the follow-up reminder of a sample as sent. It
// returns true only for the caller that flipped the flag, so two sweeps
// racing on the same sample never both send.
func (s *Store) ClaimFollowUpReminder(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE samples SET follow_up_notified = 1 WHERE id = ? AND status = ? AND follow_up_notified = 0",
		id, string(StatusAwaitingClient))
	if err != nil {
		return false, fmt.Errorf("claiming follow-up reminder: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ReportRows returns samples joined with their owner's name, ordered by
// agent then receipt.
func (s *Store) ReportRows(ctx context.Context, f Filter) ([]ReportRow, error) {
	cols := make([]string, 0, 9)
	for _, c := range strings.Split(sampleColumns, ", ") {
		cols = append(cols, "s."+c)
	}
	where, args := f.clause("s.")
	rows, err := s.db.QueryContext(ctx,
		"SELECT p.name, "+strings.Join(cols, ", ")+
			" FROM samples s JOIN participants p ON p.id = s.owner_id"+where+
			" ORDER BY p.name, s.received_at, s.id", args...)
	if err != nil {
		return nil, fmt.Errorf("querying report rows: %w", err)
	}
	defer rows.Close()

	var result []ReportRow
	for rows.Next() {
		var (
			name string
			raw  rawSample
		)
		if err := rows.Scan(append([]any{&name}, raw.dest()...)...); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		result = append(result, ReportRow{AgentName: name, Sample: raw.sample()})
	}
	return result, rows.Err()
}

func (f Filter) clause(prefix string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		conds = append(conds, prefix+"status = ?")
		args = append(args, string(f.Status))
	}
	if f.OwnerID != "" {
		conds = append(conds, prefix+"owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if !f.ReceivedBefore.IsZero() {
		conds = append(conds, prefix+"received_at < ?")
		args = append(args, formatInstant(f.ReceivedBefore))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

type rawSample struct {
	id, owner, status, received string
	customer                    sql.NullString
	contract                    sql.NullInt64
	followUp                    sql.NullString
	notified                    int
	feedback                    sql.NullString
}

func (r *rawSample) dest() []any {
	return []any{&r.id, &r.owner, &r.status, &r.received, &r.customer, &r.contract, &r.followUp, &r.notified, &r.feedback}
}

func (r *rawSample) sample() Sample {
	s := Sample{
		ID:               r.id,
		OwnerID:          r.owner,
		Status:           Status(r.status),
		CustomerName:     r.customer.String,
		FollowUpNotified: r.notified != 0,
		ClientFeedback:   r.feedback.String,
	}
	if t, err := time.Parse(time.RFC3339, r.received); err == nil {
		s.ReceivedAt = t
	}
	if r.contract.Valid {
		if r.contract.Int64 == 1 {
			s.Contract = ContractClosed
		} else {
			s.Contract = ContractNotClosed
		}
	}
	if r.followUp.Valid && r.followUp.String != "" {
		if d, err := ParseDate(r.followUp.String); err == nil {
			s.FollowUpDate = d
		}
	}
	return s
}

func scanSample(sc scanner) (*Sample, error) {
	var raw rawSample
	if err := sc.Scan(raw.dest()...); err != nil {
		return nil, err
	}
	s := raw.sample()
	return &s, nil
}

// formatInstant renders t as fixed-width UTC RFC3339 so text comparison in
// SQL orders the same as time.
func formatInstant(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func contractValue(c Contract) any {
	switch c {
	case ContractClosed:
		return 1
	case ContractNotClosed:
		return 0
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
