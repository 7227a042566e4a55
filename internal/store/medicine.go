package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/cuidamed/internal/model"
)

type MedicineStore struct {
	db *sql.DB
}

func NewMedicineStore(db *sql.DB) *MedicineStore {
	return &MedicineStore{db: db}
}

func scanMedicine(scanner interface{ Scan(...any) error }) (*model.Medicine, error) {
	var m model.Medicine
	err := scanner.Scan(&m.ID, &m.TreatmentID, &m.Name, &m.DoseAmount, &m.DoseUnit, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const medicineCols = `m.id, m.treatment_id, m.name, m.dose_amount, m.dose_unit, m.created_at, m.updated_at`

func (s *MedicineStore) Create(ctx context.Context, treatmentID int64, name string, doseAmount float64, doseUnit string) (*model.Medicine, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO medicines (treatment_id, name, dose_amount, dose_unit) VALUES (?, ?, ?, ?)`,
		treatmentID, name, doseAmount, doseUnit,
	)
	if err != nil {
		return nil, fmt.Errorf("insert medicine: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.getByID(ctx, id)
}

func (s *MedicineStore) getByID(ctx context.Context, id int64) (*model.Medicine, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+medicineCols+` FROM medicines m WHERE m.id = ?`, id)
	m, err := scanMedicine(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get medicine: %w", err)
	}
	return m, nil
}

// GetByID returns the medicine only if its treatment belongs to userID.
func (s *MedicineStore) GetByID(ctx context.Context, id, userID int64) (*model.Medicine, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+medicineCols+` FROM medicines m
		 JOIN treatments t ON t.id = m.treatment_id
		 WHERE m.id = ? AND t.user_id = ?`, id, userID)
	m, err := scanMedicine(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get medicine: %w", err)
	}
	return m, nil
}

func (s *MedicineStore) ListByTreatment(ctx context.Context, treatmentID int64) ([]model.Medicine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+medicineCols+` FROM medicines m WHERE m.treatment_id = ? ORDER BY m.name ASC, m.id ASC`, treatmentID)
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	defer rows.Close()

	var medicines []model.Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medicine: %w", err)
		}
		medicines = append(medicines, *m)
	}
	return medicines, rows.Err()
}

func (s *MedicineStore) Update(ctx context.Context, id int64, name string, doseAmount float64, doseUnit string) (*model.Medicine, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE medicines SET name = ?, dose_amount = ?, dose_unit = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, doseAmount, doseUnit, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update medicine: %w", err)
	}
	return s.getByID(ctx, id)
}

func (s *MedicineStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete medicine: %w", err)
	}
	return nil
}
