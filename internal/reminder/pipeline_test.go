package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/cuidamed/internal/database"
	"github.com/dukerupert/cuidamed/internal/model"
	"github.com/dukerupert/cuidamed/internal/push"
	"github.com/dukerupert/cuidamed/internal/store"
)

type sentMessage struct {
	device model.UserDevice
	msg    push.Message
}

// recordingSender captures every send and fails for tokens listed in fail.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[string]error
}

func (s *recordingSender) Send(_ context.Context, device model.UserDevice, msg push.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[device.EndpointToken]; err != nil {
		return err
	}
	s.sent = append(s.sent, sentMessage{device: device, msg: msg})
	return nil
}

type pipelineFixture struct {
	treatments *store.TreatmentStore
	medicines  *store.MedicineStore
	intakes    *store.IntakeStore
	devices    *store.DeviceStore
}

func setupPipeline(t *testing.T) pipelineFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Ids matter here so seed the user directly.
	if _, err := db.Exec(`INSERT INTO users (id, email, name, password_hash) VALUES (7, 'maria@example.com', 'Maria', 'x')`); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return pipelineFixture{
		treatments: store.NewTreatmentStore(db),
		medicines:  store.NewMedicineStore(db),
		intakes:    store.NewIntakeStore(db),
		devices:    store.NewDeviceStore(db),
	}
}

func (f pipelineFixture) medicine(t *testing.T, userID int64, start string, end *string, name string, amount float64, unit string) int64 {
	t.Helper()
	ctx := context.Background()
	tr, err := f.treatments.Create(ctx, userID, name+" course", "", start, end)
	if err != nil {
		t.Fatalf("create treatment: %v", err)
	}
	m, err := f.medicines.Create(ctx, tr.ID, name, amount, unit)
	if err != nil {
		t.Fatalf("create medicine: %v", err)
	}
	return m.ID
}

func (f pipelineFixture) intake(t *testing.T, medicineID int64, hhmm string, dow *int) {
	t.Helper()
	if _, err := f.intakes.Create(context.Background(), medicineID, hhmm, dow); err != nil {
		t.Fatalf("create intake: %v", err)
	}
}

func TestPipelineMondayMorning(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	med := f.medicine(t, 7, "2024-06-01", nil, "Paracetamol", 500, "mg")
	f.intake(t, med, "08:00", intPtr(1))

	if _, err := f.devices.Upsert(ctx, 7, model.PlatformIOS, "iphone", "ExponentPushToken[iphone]"); err != nil {
		t.Fatalf("upsert device: %v", err)
	}
	if _, err := f.devices.Upsert(ctx, 7, model.PlatformAndroid, "tablet", "ExponentPushToken[tablet]"); err != nil {
		t.Fatalf("upsert device: %v", err)
	}

	sender := &recordingSender{}
	r := NewRunner(f.intakes, f.devices, sender, testLogger())
	res := r.Run(ctx, time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC))

	if res.Err != nil {
		t.Fatalf("Err = %v", res.Err)
	}
	if res.Matched != 1 || res.Users != 1 || res.Notified != 1 || res.DevicesSent != 2 {
		t.Errorf("result = %+v", res)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.sent))
	}

	want := push.Message{
		Title: "Remember to take your medication",
		Body:  "Paracetamol (500 mg)",
		Data:  map[string]string{"userId": "7", "intakesCount": "1"},
	}
	for _, s := range sender.sent {
		if s.msg.Title != want.Title || s.msg.Body != want.Body {
			t.Errorf("message = %+v, want %+v", s.msg, want)
		}
		if s.msg.Data["userId"] != "7" || s.msg.Data["intakesCount"] != "1" {
			t.Errorf("data = %v, want %v", s.msg.Data, want.Data)
		}
	}
}

func TestPipelineSkipsInactiveSchedules(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	future := f.medicine(t, 7, "2024-07-01", nil, "Future", 1, "pill")
	f.intake(t, future, "08:00", nil)
	ended := f.medicine(t, 7, "2024-01-01", strPtr("2024-06-02"), "Ended", 1, "pill")
	f.intake(t, ended, "08:00", nil)
	tuesday := f.medicine(t, 7, "2024-01-01", nil, "Tuesday", 1, "pill")
	f.intake(t, tuesday, "08:00", intPtr(2))

	if _, err := f.devices.Upsert(ctx, 7, model.PlatformIOS, "iphone", "ExponentPushToken[iphone]"); err != nil {
		t.Fatalf("upsert device: %v", err)
	}

	sender := &recordingSender{}
	res := NewRunner(f.intakes, f.devices, sender, testLogger()).Run(ctx, time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC))

	if res.Matched != 0 {
		t.Errorf("Matched = %d, want 0", res.Matched)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent %d messages, want 0", len(sender.sent))
	}
}

func TestPipelinePrunesExpiredDevice(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	med := f.medicine(t, 7, "2024-01-01", nil, "Vitamin D", 1000, "IU")
	f.intake(t, med, "22:15", nil)

	if _, err := f.devices.Upsert(ctx, 7, model.PlatformIOS, "old", "ExponentPushToken[old]"); err != nil {
		t.Fatalf("upsert device: %v", err)
	}
	if _, err := f.devices.Upsert(ctx, 7, model.PlatformIOS, "new", "ExponentPushToken[new]"); err != nil {
		t.Fatalf("upsert device: %v", err)
	}

	sender := &recordingSender{fail: map[string]error{"ExponentPushToken[old]": push.ErrExpired}}
	res := NewRunner(f.intakes, f.devices, sender, testLogger()).Run(ctx, time.Date(2024, 6, 9, 22, 15, 0, 0, time.UTC))

	if res.DevicesSent != 1 || res.DevicesFailed != 1 {
		t.Errorf("result = %+v, want 1 sent 1 failed", res)
	}

	left, err := f.devices.ListByUser(ctx, 7)
	if err != nil {
		t.Fatalf("list devices: %v", err)
	}
	if len(left) != 1 || left[0].DeviceID != "new" {
		t.Errorf("devices after prune = %+v, want only %q", left, "new")
	}
}
