package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/cuidamed/internal/model"
)

type TreatmentStore struct {
	db *sql.DB
}

func NewTreatmentStore(db *sql.DB) *TreatmentStore {
	return &TreatmentStore{db: db}
}

func scanTreatment(scanner interface{ Scan(...any) error }) (*model.Treatment, error) {
	var t model.Treatment
	var endDate sql.NullString
	err := scanner.Scan(&t.ID, &t.UserID, &t.Name, &t.Notes, &t.StartDate, &endDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		t.EndDate = &endDate.String
	}
	return &t, nil
}

const treatmentCols = `id, user_id, name, notes, start_date, end_date, created_at, updated_at`

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (s *TreatmentStore) Create(ctx context.Context, userID int64, name, notes, startDate string, endDate *string) (*model.Treatment, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO treatments (user_id, name, notes, start_date, end_date) VALUES (?, ?, ?, ?, ?)`,
		userID, name, notes, startDate, nullString(endDate),
	)
	if err != nil {
		return nil, fmt.Errorf("insert treatment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id, userID)
}

// GetByID returns the treatment only if it belongs to userID.
func (s *TreatmentStore) GetByID(ctx context.Context, id, userID int64) (*model.Treatment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+treatmentCols+` FROM treatments WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTreatment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get treatment: %w", err)
	}
	return t, nil
}

func (s *TreatmentStore) ListByUser(ctx context.Context, userID int64) ([]model.Treatment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+treatmentCols+` FROM treatments WHERE user_id = ? ORDER BY start_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list treatments: %w", err)
	}
	defer rows.Close()

	var treatments []model.Treatment
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan treatment: %w", err)
		}
		treatments = append(treatments, *t)
	}
	return treatments, rows.Err()
}

func (s *TreatmentStore) Update(ctx context.Context, id, userID int64, name, notes, startDate string, endDate *string) (*model.Treatment, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE treatments SET name = ?, notes = ?, start_date = ?, end_date = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		name, notes, startDate, nullString(endDate), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update treatment: %w", err)
	}
	return s.GetByID(ctx, id, userID)
}

func (s *TreatmentStore) Delete(ctx context.Context, id, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM treatments WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete treatment: %w", err)
	}
	return nil
}
