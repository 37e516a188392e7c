// Package timeline holds the pure transforms applied to an aggregated event
// set: filtering with facet counts, stable sorting, and decade-based temporal
// sampling. Every transform returns a new slice; input slices are never
// mutated.
package timeline

import (
	"strings"

	"github.com/sahistory/timeline/internal/dates"
	"github.com/sahistory/timeline/internal/models"
)

// Time period bucket labels, oldest first. Each bucket includes its named
// boundary year, so 1650 belongs to 1500-1650 and 1500 still counts as
// pre-1500; the tail from 1991 on is open.
const (
	PeriodPre1500     = "pre-1500"
	Period1500to1650  = "1500-1650"
	Period1650to1800  = "1650-1800"
	Period1800to1900  = "1800-1900"
	Period1900to1950  = "1900-1950"
	Period1950to1990  = "1950-1990"
	Period1990Present = "1990-present"
)

var periodBounds = []struct {
	label string
	until int // inclusive upper bound year; 0 marks the open tail
}{
	{PeriodPre1500, 1500},
	{Period1500to1650, 1650},
	{Period1650to1800, 1800},
	{Period1800to1900, 1900},
	{Period1900to1950, 1950},
	{Period1950to1990, 1990},
	{Period1990Present, 0},
}

// TimePeriodOf maps a year onto its bucket label.
func TimePeriodOf(year int) string {
	for _, b := range periodBounds {
		if b.until == 0 || year <= b.until {
			return b.label
		}
	}
	return Period1990Present
}

// ValidTimePeriod reports whether s names a known bucket.
func ValidTimePeriod(s string) bool {
	for _, b := range periodBounds {
		if b.label == s {
			return true
		}
	}
	return false
}

// FilterAndFacet applies the criteria to the event set and computes facet
// counts over the filtered result. Criteria combine with logical AND; zero
// values and "all" mean unfiltered.
func FilterAndFacet(events []models.EventRecord, c models.FilterCriteria) ([]models.EventRecord, models.FacetCounts) {
	filtered := make([]models.EventRecord, 0, len(events))
	for _, e := range events {
		if matches(e, c) {
			filtered = append(filtered, e)
		}
	}
	return filtered, countFacets(filtered)
}

func matches(e models.EventRecord, c models.FilterCriteria) bool {
	if c.ContentType != "" && c.ContentType != "all" && e.ContentType != c.ContentType {
		return false
	}

	if c.TimePeriod != "" && c.TimePeriod != "all" {
		year, ok := historicalYear(e)
		if !ok || TimePeriodOf(year) != c.TimePeriod {
			return false
		}
	}

	if len(c.GeographicalLocation) > 0 && !intersects(e.Location, c.GeographicalLocation) {
		return false
	}
	if len(c.Themes) > 0 && !intersects(e.Themes, c.Themes) {
		return false
	}
	if len(c.Categories) > 0 && !intersects(e.Categories, c.Categories) {
		return false
	}

	if c.Keywords != "" {
		needle := strings.ToLower(c.Keywords)
		if !strings.Contains(strings.ToLower(e.Title), needle) &&
			!strings.Contains(strings.ToLower(e.BodyExcerpt), needle) {
			return false
		}
	}

	if c.StartDate != "" || c.EndDate != "" {
		// Date-range filtering only applies to records with a real
		// historical date.
		if e.Date == "" || e.NoHistoricalDate {
			return false
		}
		if c.StartDate != "" && e.Date < c.StartDate {
			return false
		}
		if c.EndDate != "" && e.Date > c.EndDate {
			return false
		}
	}

	return true
}

// countFacets tallies the filtered set per dimension. Multi-valued dimensions
// contribute one increment per value. Absent values simply produce no entry;
// there are no zero-valued buckets.
func countFacets(filtered []models.EventRecord) models.FacetCounts {
	facets := models.FacetCounts{
		models.FacetContentType:          {},
		models.FacetTimePeriod:           {},
		models.FacetGeographicalLocation: {},
		models.FacetThemes:               {},
	}

	for _, e := range filtered {
		if e.ContentType != "" {
			facets[models.FacetContentType][e.ContentType]++
		}
		if year, ok := historicalYear(e); ok {
			facets[models.FacetTimePeriod][TimePeriodOf(year)]++
		}
		for _, loc := range e.Location {
			facets[models.FacetGeographicalLocation][loc]++
		}
		for _, theme := range e.Themes {
			facets[models.FacetThemes][theme]++
		}
	}
	return facets
}

// historicalYear returns the record's year when it carries a real historical
// date; creation-timestamp fallbacks and dateless records report false.
func historicalYear(e models.EventRecord) (int, bool) {
	if e.NoHistoricalDate {
		return 0, false
	}
	return dates.Year(e.Date)
}

func intersects(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}
