package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/dukerupert/cuidamed/internal/model"
	"github.com/google/uuid"
)

// Result summarizes one reminder run.
type Result struct {
	RunID         uuid.UUID
	At            time.Time
	Matched       int // dosing entries due in the slot
	Users         int // distinct users among them
	Notified      int // users whose devices were dispatched to
	Skipped       int // users with no registered device
	Failed        int // users whose processing errored
	DevicesSent   int
	DevicesFailed int
	Err           error // set when matching failed and the run ended early
}

// LogValue implements slog.LogValuer.
func (r Result) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("run_id", r.RunID.String()),
		slog.Time("at", r.At),
		slog.Int("matched", r.Matched),
		slog.Int("users", r.Users),
		slog.Int("notified", r.Notified),
		slog.Int("skipped", r.Skipped),
		slog.Int("failed", r.Failed),
		slog.Int("devices_sent", r.DevicesSent),
		slog.Int("devices_failed", r.DevicesFailed),
	}
	if r.Err != nil {
		attrs = append(attrs, slog.String("error", r.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

// Runner executes one pass of the reminder pipeline: match the slot, group by
// user, then resolve devices, compose and dispatch per user.
type Runner struct {
	entries    EntrySource
	devices    DeviceSource
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewRunner(entries EntrySource, devices DeviceSource, sender Sender, logger *slog.Logger) *Runner {
	logger = logger.With("component", "reminder")
	return &Runner{
		entries:    entries,
		devices:    devices,
		dispatcher: NewDispatcher(sender, devices, logger),
		logger:     logger,
	}
}

// Run processes the slot containing now. It never returns an error: matching
// failures end the run and are reported in Result.Err, and per-user failures
// are logged and counted.
func (r *Runner) Run(ctx context.Context, now time.Time) Result {
	res := Result{RunID: uuid.New(), At: now}
	logger := r.logger.With("run_id", res.RunID.String())

	slot := SlotFor(now)
	entries, err := r.entries.FindActive(ctx, slot)
	if err != nil {
		res.Err = fmt.Errorf("find active intakes: %w", err)
		logger.Error("reminder matching failed", "slot_time", slot.Time, "slot_date", slot.Date, "error", err)
		return res
	}

	due := make([]model.DosingEntry, 0, len(entries))
	for _, e := range entries {
		if !Matches(e, now) {
			logger.Warn("discarding entry outside slot", "intake_id", e.IntakeID, "scheduled_time", e.ScheduledTime)
			continue
		}
		due = append(due, e)
	}
	res.Matched = len(due)

	groups := GroupByUser(due)
	if len(groups) == 0 {
		logger.Debug("nothing to notify", "slot_time", slot.Time, "weekday", slot.Weekday)
		return res
	}
	res.Users = len(groups)

	for _, userID := range slices.Sorted(maps.Keys(groups)) {
		sent, total, err := r.notifyUser(ctx, userID, groups[userID])
		switch {
		case err != nil:
			res.Failed++
			logger.Error("reminder for user failed", "user_id", userID, "error", err)
		case total == 0:
			res.Skipped++
			logger.Debug("user has no devices", "user_id", userID)
		default:
			res.Notified++
			res.DevicesSent += sent
			res.DevicesFailed += total - sent
		}
	}
	return res
}

func (r *Runner) notifyUser(ctx context.Context, userID int64, entries []EntrySummary) (sent, total int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	devices, err := r.devices.ListByUser(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("list devices: %w", err)
	}
	if len(devices) == 0 {
		return 0, 0, nil
	}

	msg := Compose(entries)
	msg.Data = map[string]string{
		"userId":       strconv.FormatInt(userID, 10),
		"intakesCount": strconv.Itoa(len(entries)),
	}
	return r.dispatcher.Dispatch(ctx, userID, devices, msg), len(devices), nil
}
