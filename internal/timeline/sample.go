package timeline

import (
	"sort"

	"github.com/sahistory/timeline/internal/models"
)

// Sample reduces a multi-century result set to at most target records while
// keeping every represented decade in play. Input at or under the target is
// returned unchanged. Otherwise events are grouped by decade, each decade
// gets an even share of the budget (the remainder biased toward recent
// decades), and an oversubscribed decade keeps an evenly spaced subset of its
// date-sorted events.
//
// Only dated events participate; records with empty dates are excluded from
// the sampled output.
func Sample(events []models.EventRecord, target int) []models.EventRecord {
	if target <= 0 || len(events) <= target {
		return events
	}

	buckets := make(map[int][]models.EventRecord)
	decades := make([]int, 0)
	for _, e := range events {
		year, ok := yearOf(e)
		if !ok {
			continue
		}
		d := year / 10 * 10
		if _, seen := buckets[d]; !seen {
			decades = append(decades, d)
		}
		buckets[d] = append(buckets[d], e)
	}
	if len(decades) == 0 {
		return []models.EventRecord{}
	}
	sort.Ints(decades)

	base := target / len(decades)
	remainder := target - base*len(decades)

	out := make([]models.EventRecord, 0, target)
	for i, d := range decades {
		alloc := base
		if i >= len(decades)-remainder {
			alloc++
		}
		if alloc <= 0 {
			continue
		}

		bucket := buckets[d]
		if len(bucket) <= alloc {
			out = append(out, bucket...)
			continue
		}

		step := float64(len(bucket)) / float64(alloc)
		for j := 0; j < alloc; j++ {
			out = append(out, bucket[int(float64(j)*step)])
		}
	}
	return out
}

func yearOf(e models.EventRecord) (int, bool) {
	if len(e.Date) < 4 {
		return 0, false
	}
	year := 0
	for _, r := range e.Date[:4] {
		if r < '0' || r > '9' {
			return 0, false
		}
		year = year*10 + int(r-'0')
	}
	return year, true
}
