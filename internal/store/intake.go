package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/cuidamed/internal/model"
)

type IntakeStore struct {
	db *sql.DB
}

func NewIntakeStore(db *sql.DB) *IntakeStore {
	return &IntakeStore{db: db}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func scanIntake(scanner interface{ Scan(...any) error }) (*model.Intake, error) {
	var in model.Intake
	var dow sql.NullInt64
	err := scanner.Scan(&in.ID, &in.MedicineID, &in.ScheduledTime, &dow, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if dow.Valid {
		d := int(dow.Int64)
		in.DayOfWeek = &d
	}
	return &in, nil
}

const intakeCols = `i.id, i.medicine_id, i.scheduled_time, i.day_of_week, i.created_at, i.updated_at`

func (s *IntakeStore) Create(ctx context.Context, medicineID int64, scheduledTime string, dayOfWeek *int) (*model.Intake, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO intakes (medicine_id, scheduled_time, day_of_week) VALUES (?, ?, ?)`,
		medicineID, scheduledTime, nullInt(dayOfWeek),
	)
	if err != nil {
		return nil, fmt.Errorf("insert intake: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.getByID(ctx, id)
}

func (s *IntakeStore) getByID(ctx context.Context, id int64) (*model.Intake, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+intakeCols+` FROM intakes i WHERE i.id = ?`, id)
	in, err := scanIntake(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get intake: %w", err)
	}
	return in, nil
}

// GetByID returns the intake only if the owning treatment belongs to userID.
func (s *IntakeStore) GetByID(ctx context.Context, id, userID int64) (*model.Intake, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+intakeCols+` FROM intakes i
		 JOIN medicines m ON m.id = i.medicine_id
		 JOIN treatments t ON t.id = m.treatment_id
		 WHERE i.id = ? AND t.user_id = ?`, id, userID)
	in, err := scanIntake(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get intake: %w", err)
	}
	return in, nil
}

func (s *IntakeStore) ListByMedicine(ctx context.Context, medicineID int64) ([]model.Intake, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+intakeCols+` FROM intakes i WHERE i.medicine_id = ?
		 ORDER BY i.scheduled_time ASC, i.day_of_week ASC`, medicineID)
	if err != nil {
		return nil, fmt.Errorf("list intakes: %w", err)
	}
	defer rows.Close()

	var intakes []model.Intake
	for rows.Next() {
		in, err := scanIntake(rows)
		if err != nil {
			return nil, fmt.Errorf("scan intake: %w", err)
		}
		intakes = append(intakes, *in)
	}
	return intakes, rows.Err()
}

func (s *IntakeStore) Update(ctx context.Context, id int64, scheduledTime string, dayOfWeek *int) (*model.Intake, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE intakes SET scheduled_time = ?, day_of_week = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		scheduledTime, nullInt(dayOfWeek), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update intake: %w", err)
	}
	return s.getByID(ctx, id)
}

func (s *IntakeStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM intakes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete intake: %w", err)
	}
	return nil
}

// FindActive returns every dosing entry due in the given slot: exact minute,
// matching weekday or no weekday, and inside the treatment's date range.
// Row order is unspecified.
func (s *IntakeStore) FindActive(ctx context.Context, slot model.ScheduleSlot) ([]model.DosingEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.id, i.scheduled_time, i.day_of_week, t.start_date, t.end_date,
		        m.name, m.dose_amount, m.dose_unit, t.user_id
		 FROM intakes i
		 JOIN medicines m ON m.id = i.medicine_id
		 JOIN treatments t ON t.id = m.treatment_id
		 WHERE i.scheduled_time = ?
		   AND (i.day_of_week IS NULL OR i.day_of_week = ?)
		   AND t.start_date <= ?
		   AND (t.end_date IS NULL OR t.end_date >= ?)`,
		slot.Time, slot.Weekday, slot.Date, slot.Date,
	)
	if err != nil {
		return nil, fmt.Errorf("find active intakes: %w", err)
	}
	defer rows.Close()

	var entries []model.DosingEntry
	for rows.Next() {
		var e model.DosingEntry
		var dow sql.NullInt64
		var endDate sql.NullString
		if err := rows.Scan(&e.IntakeID, &e.ScheduledTime, &dow, &e.StartDate, &endDate,
			&e.MedicineName, &e.DoseAmount, &e.DoseUnit, &e.UserID); err != nil {
			return nil, fmt.Errorf("scan dosing entry: %w", err)
		}
		if dow.Valid {
			d := int(dow.Int64)
			e.DayOfWeek = &d
		}
		if endDate.Valid {
			e.EndDate = &endDate.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
