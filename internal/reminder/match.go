package reminder

import (
	"time"

	"github.com/dukerupert/cuidamed/internal/model"
)

// ISOWeekday maps time.Weekday (Sunday=0) to the ISO 8601 numbering stored on
// intakes, where Monday=1 and Sunday=7.
func ISOWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

// SlotFor returns the schedule slot for the minute containing now, in now's
// location.
func SlotFor(now time.Time) model.ScheduleSlot {
	return model.ScheduleSlot{
		Time:    now.Format(model.TimeLayout),
		Weekday: ISOWeekday(now.Weekday()),
		Date:    now.Format(model.DateLayout),
	}
}

// Matches reports whether entry is due at now. It evaluates the same
// predicate the intake store runs in SQL.
func Matches(entry model.DosingEntry, now time.Time) bool {
	slot := SlotFor(now)

	if entry.ScheduledTime != slot.Time {
		return false
	}
	if entry.DayOfWeek != nil && *entry.DayOfWeek != slot.Weekday {
		return false
	}
	// Dates are YYYY-MM-DD so lexical order is chronological.
	if entry.StartDate > slot.Date {
		return false
	}
	if entry.EndDate != nil && *entry.EndDate < slot.Date {
		return false
	}
	return true
}
