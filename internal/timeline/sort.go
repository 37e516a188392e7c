package timeline

import (
	"sort"

	"github.com/sahistory/timeline/internal/models"
)

// Sort returns a stably sorted copy of the event set. Relevance is an
// explicit pass-through: keyword-match order established upstream is the
// relevance order, and an unknown mode falls back to date_asc.
func Sort(events []models.EventRecord, mode string) []models.EventRecord {
	out := make([]models.EventRecord, len(events))
	copy(out, events)

	switch mode {
	case models.SortDateDesc:
		// Empty dates sort last.
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Date == "" {
				return false
			}
			if out[j].Date == "" {
				return true
			}
			return out[i].Date > out[j].Date
		})
	case models.SortTitle:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Title < out[j].Title
		})
	case models.SortRelevance:
		// Relevance order was established upstream.
	default:
		// date_asc; empty dates sort first.
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Date < out[j].Date
		})
	}
	return out
}
