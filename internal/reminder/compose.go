package reminder

import (
	"strconv"
	"strings"

	"github.com/dukerupert/cuidamed/internal/push"
)

const (
	TitleSingular = "Remember to take your medication"
	TitlePlural   = "Remember to take your medications"
)

// Compose builds the notification for one user's due entries. Data is left
// for the caller to fill.
func Compose(entries []EntrySummary) push.Message {
	title := TitlePlural
	if len(entries) == 1 {
		title = TitleSingular
	}

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.MedicineName+" ("+FormatDose(e.DoseAmount)+" "+e.DoseUnit+")")
	}

	return push.Message{
		Title: title,
		Body:  strings.Join(parts, ", "),
	}
}

// FormatDose renders an amount without trailing zeros: 500, 2.5, 0.25.
func FormatDose(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
