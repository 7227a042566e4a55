package reminder

import "github.com/dukerupert/cuidamed/internal/model"

// EntrySummary is the part of a dosing entry that ends up in a notification.
type EntrySummary struct {
	MedicineName string
	DoseAmount   float64
	DoseUnit     string
}

// GroupByUser partitions entries by owning user. Within a user, summaries keep
// the order the entries arrived in.
func GroupByUser(entries []model.DosingEntry) map[int64][]EntrySummary {
	groups := make(map[int64][]EntrySummary)
	for _, e := range entries {
		groups[e.UserID] = append(groups[e.UserID], EntrySummary{
			MedicineName: e.MedicineName,
			DoseAmount:   e.DoseAmount,
			DoseUnit:     e.DoseUnit,
		})
	}
	return groups
}
