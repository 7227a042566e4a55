package model

import "time"

// Layouts for schedule fields stored as text. Both sort lexically in
// chronological order, which the matcher query relies on.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Treatment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Notes     string    `json:"notes"`
	StartDate string    `json:"start_date"`
	EndDate   *string   `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Medicine struct {
	ID          int64     `json:"id"`
	TreatmentID int64     `json:"treatment_id"`
	Name        string    `json:"name"`
	DoseAmount  float64   `json:"dose_amount"`
	DoseUnit    string    `json:"dose_unit"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Intake is one scheduled dose of a medicine. A nil DayOfWeek means every day.
type Intake struct {
	ID            int64     `json:"id"`
	MedicineID    int64     `json:"medicine_id"`
	ScheduledTime string    `json:"scheduled_time"`
	DayOfWeek     *int      `json:"day_of_week"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
