package model

// DosingEntry is an intake joined with its medicine and treatment, as read by
// the reminder job.
type DosingEntry struct {
	IntakeID      int64
	ScheduledTime string
	DayOfWeek     *int // ISO weekday, 1=Monday..7=Sunday
	StartDate     string
	EndDate       *string
	MedicineName  string
	DoseAmount    float64
	DoseUnit      string
	UserID        int64
}

// ScheduleSlot is the minute an intake must fall on to be due.
type ScheduleSlot struct {
	Time    string // HH:MM
	Weekday int    // ISO weekday
	Date    string // YYYY-MM-DD
}
