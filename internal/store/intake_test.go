package store

import (
	"context"
	"testing"

	"github.com/dukerupert/cuidamed/internal/model"
)

type intakeFixture struct {
	intakes *IntakeStore
	userID  int64
	treat   *TreatmentStore
	meds    *MedicineStore
	treatID int64
	medID   int64
}

func setupIntakeTestDB(t *testing.T) intakeFixture {
	t.Helper()
	db := setupTestDB(t)
	ctx := context.Background()

	u, err := NewUserStore(db).Create(ctx, "alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	ts := NewTreatmentStore(db)
	tr, err := ts.Create(ctx, u.ID, "Flu", "", "2024-01-01", nil)
	if err != nil {
		t.Fatalf("create treatment: %v", err)
	}
	ms := NewMedicineStore(db)
	m, err := ms.Create(ctx, tr.ID, "Paracetamol", 500, "mg")
	if err != nil {
		t.Fatalf("create medicine: %v", err)
	}
	return intakeFixture{intakes: NewIntakeStore(db), userID: u.ID, treat: ts, meds: ms, treatID: tr.ID, medID: m.ID}
}

func TestIntakeCreateEveryDay(t *testing.T) {
	f := setupIntakeTestDB(t)
	ctx := context.Background()

	in, err := f.intakes.Create(ctx, f.medID, "08:00", nil)
	if err != nil {
		t.Fatalf("create intake: %v", err)
	}
	if in.DayOfWeek != nil {
		t.Errorf("day_of_week = %d, want nil", *in.DayOfWeek)
	}
	if in.ScheduledTime != "08:00" {
		t.Errorf("scheduled_time = %q, want %q", in.ScheduledTime, "08:00")
	}
}

func TestIntakeDayOfWeekConstraint(t *testing.T) {
	f := setupIntakeTestDB(t)

	if _, err := f.intakes.Create(context.Background(), f.medID, "08:00", intPtr(8)); err == nil {
		t.Fatal("expected check constraint error for day_of_week 8")
	}
}

func TestIntakeUpdateClearsDay(t *testing.T) {
	f := setupIntakeTestDB(t)
	ctx := context.Background()

	in, _ := f.intakes.Create(ctx, f.medID, "08:00", intPtr(3))
	in, err := f.intakes.Update(ctx, in.ID, "09:30", nil)
	if err != nil {
		t.Fatalf("update intake: %v", err)
	}
	if in.ScheduledTime != "09:30" || in.DayOfWeek != nil {
		t.Errorf("got %s/%v, want 09:30/nil", in.ScheduledTime, in.DayOfWeek)
	}

	list, err := f.intakes.ListByMedicine(ctx, f.medID)
	if err != nil {
		t.Fatalf("list intakes: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("len = %d, want 1", len(list))
	}
}

func TestFindActive(t *testing.T) {
	f := setupIntakeTestDB(t)
	ctx := context.Background()

	// 2024-06-03 is a Monday
	monday := model.ScheduleSlot{Time: "08:00", Weekday: 1, Date: "2024-06-03"}

	everyDay, _ := f.intakes.Create(ctx, f.medID, "08:00", nil)
	onMonday, _ := f.intakes.Create(ctx, f.medID, "08:00", intPtr(1))
	f.intakes.Create(ctx, f.medID, "08:00", intPtr(2))
	f.intakes.Create(ctx, f.medID, "08:01", nil)
	f.intakes.Create(ctx, f.medID, "20:00", intPtr(1))

	entries, err := f.intakes.FindActive(ctx, monday)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}

	found := map[int64]model.DosingEntry{}
	for _, e := range entries {
		found[e.IntakeID] = e
	}
	if _, ok := found[everyDay.ID]; !ok {
		t.Error("expected every-day intake to match")
	}
	e, ok := found[onMonday.ID]
	if !ok {
		t.Fatal("expected monday intake to match")
	}
	if e.MedicineName != "Paracetamol" || e.DoseAmount != 500 || e.DoseUnit != "mg" {
		t.Errorf("entry = %+v, want Paracetamol 500 mg", e)
	}
	if e.UserID != f.userID {
		t.Errorf("user_id = %d, want %d", e.UserID, f.userID)
	}
	if e.DayOfWeek == nil || *e.DayOfWeek != 1 {
		t.Errorf("day_of_week = %v, want 1", e.DayOfWeek)
	}
}

func TestFindActiveDateRange(t *testing.T) {
	f := setupIntakeTestDB(t)
	ctx := context.Background()
	f.intakes.Create(ctx, f.medID, "08:00", nil)

	tests := []struct {
		name  string
		start string
		end   *string
		date  string
		want  int
	}{
		{"before start", "2024-06-04", nil, "2024-06-03", 0},
		{"on start", "2024-06-03", nil, "2024-06-03", 1},
		{"open ended", "2024-01-01", nil, "2030-12-31", 1},
		{"on end", "2024-01-01", strPtr("2024-06-03"), "2024-06-03", 1},
		{"after end", "2024-01-01", strPtr("2024-06-02"), "2024-06-03", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.treat.Update(ctx, f.treatID, f.userID, "Flu", "", tt.start, tt.end); err != nil {
				t.Fatalf("update treatment: %v", err)
			}
			entries, err := f.intakes.FindActive(ctx, model.ScheduleSlot{Time: "08:00", Weekday: 1, Date: tt.date})
			if err != nil {
				t.Fatalf("find active: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("len = %d, want %d", len(entries), tt.want)
			}
		})
	}
}

func TestFindActiveNoMatches(t *testing.T) {
	f := setupIntakeTestDB(t)

	entries, err := f.intakes.FindActive(context.Background(), model.ScheduleSlot{Time: "03:00", Weekday: 7, Date: "2024-06-09"})
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len = %d, want 0", len(entries))
	}
}
