package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/cuidamed/internal/model"
	"go.uber.org/mock/gomock"
)

func TestSchedulerTickTruncatesToMinute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	entries := NewMockEntrySource(ctrl)
	loc := time.FixedZone("UTC+2", 2*60*60)

	// 06:00:42 UTC is 08:00 in loc
	want := model.ScheduleSlot{Time: "08:00", Weekday: 1, Date: "2024-06-03"}
	entries.EXPECT().FindActive(gomock.Any(), want).Return(nil, nil)

	s := NewScheduler(NewRunner(entries, NewMockDeviceSource(ctrl), NewMockSender(ctrl), testLogger()), time.Minute, loc, testLogger())
	s.now = func() time.Time { return time.Date(2024, 6, 3, 6, 0, 42, 0, time.UTC) }

	res := s.Tick(context.Background())
	if !res.At.Equal(time.Date(2024, 6, 3, 6, 0, 0, 0, time.UTC)) {
		t.Errorf("At = %v, want minute start", res.At)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	entries := NewMockEntrySource(ctrl)
	ran := make(chan struct{}, 1)
	entries.EXPECT().FindActive(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, model.ScheduleSlot) ([]model.DosingEntry, error) {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil, nil
	}).MinTimes(1)

	s := NewScheduler(NewRunner(entries, NewMockDeviceSource(ctrl), NewMockSender(ctrl), testLogger()), 20*time.Millisecond, time.UTC, testLogger())
	s.Start(context.Background())

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not tick")
	}
	s.Stop()
}

func TestSchedulerStopBeforeFirstTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := NewScheduler(NewRunner(NewMockEntrySource(ctrl), NewMockDeviceSource(ctrl), NewMockSender(ctrl), testLogger()), time.Hour, time.UTC, testLogger())
	s.Start(context.Background())

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestSchedulerDefaults(t *testing.T) {
	s := NewScheduler(nil, 0, nil, testLogger())
	if s.interval != time.Minute {
		t.Errorf("interval = %v, want %v", s.interval, time.Minute)
	}
	if s.loc != time.UTC {
		t.Errorf("loc = %v, want UTC", s.loc)
	}
}
