package models

import "time"

// Content types served on the timeline. timeline_html marks records
// synthesized out of embedded HTML markup rather than repository fields.
const (
	TypeEvent        = "event"
	TypeArticle      = "article"
	TypeBiography    = "biography"
	TypeTopic        = "topic"
	TypePlace        = "place"
	TypeArchive      = "archive"
	TypeTimelineHTML = "timeline_html"
)

// Record provenance.
const (
	SourceStructured = "structured"
	SourceDerived    = "derived"
	SourceFeed       = "feed"
)

// Sort modes accepted by the events endpoint.
const (
	SortDateAsc   = "date_asc"
	SortDateDesc  = "date_desc"
	SortTitle     = "title"
	SortRelevance = "relevance"
)

// EventRecord is the canonical unit of timeline data. Records are value
// objects: transforms return new slices and never mutate a record after
// construction.
type EventRecord struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	BodyExcerpt string   `json:"bodyExcerpt"`
	URL         string   `json:"url"`
	ContentType string   `json:"contentType"`
	Date        string   `json:"date"` // canonical YYYY-MM-DD, or "" when undeterminable
	ImageURL    string   `json:"imageUrl,omitempty"`
	Location    []string `json:"location"`
	Themes      []string `json:"themes"`
	Categories  []string `json:"categories"`
	Source      string   `json:"source"`

	// NoHistoricalDate is set when Date carries only the record's creation
	// timestamp. Such records keep their date for ordering but are excluded
	// from historical date-range and time-period filtering.
	NoHistoricalDate bool `json:"noHistoricalDate,omitempty"`
}

// RawRecord is what the content repository exposes: a published node with its
// named date fields still unresolved.
type RawRecord struct {
	ID          string
	Title       string
	Body        string
	URL         string
	ContentType string
	ImageURL    string
	Locations   []string
	Themes      []string
	Categories  []string
	DateFields  map[string]string
	CreatedAt   time.Time
}

// Named date fields on repository records.
const (
	FieldThisDayPrimary   = "this_day_primary"
	FieldThisDaySecondary = "this_day_secondary"
	FieldStartDate        = "start_date"
	FieldEndDate          = "end_date"
	FieldBirthDate        = "birth_date"
	FieldDeathDate        = "death_date"
	FieldArchiveDate      = "archive_date"
	FieldEventDate        = "event_date"
)

// DateFieldPriority is the fixed fallback order for resolving a record's
// effective date. Every consumer goes through ResolveDate so the priority is
// identical in aggregation, sorting, and facet computation.
var DateFieldPriority = []string{
	FieldThisDayPrimary,
	FieldThisDaySecondary,
	FieldStartDate,
	FieldEndDate,
	FieldBirthDate,
	FieldDeathDate,
	FieldArchiveDate,
	FieldEventDate,
}

// ResolveDate returns the first non-empty value in the fixed field priority.
// The second return is false when every field is empty.
func ResolveDate(fields map[string]string) (string, bool) {
	for _, name := range DateFieldPriority {
		if v, ok := fields[name]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// FilterCriteria holds the recognized filter keys. Zero values mean
// "unfiltered"; malformed caller input is dropped before it gets here.
type FilterCriteria struct {
	ContentType          string
	TimePeriod           string
	GeographicalLocation []string
	Themes               []string
	Categories           []string
	Keywords             string
	StartDate            string
	EndDate              string
	Sort                 string
}

// FacetCounts maps a dimension name to per-value counts over the current
// filtered result set.
type FacetCounts map[string]map[string]int

// Facet dimension names.
const (
	FacetContentType          = "contentType"
	FacetTimePeriod           = "timePeriod"
	FacetGeographicalLocation = "geographicalLocation"
	FacetThemes               = "themes"
)

// APIEvent is the wire shape of a serialized event.
type APIEvent struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Date       string   `json:"date"`
	Body       string   `json:"body"`
	URL        string   `json:"url"`
	Type       string   `json:"type"`
	Image      string   `json:"image,omitempty"`
	Location   string   `json:"location"`
	Themes     []string `json:"themes"`
	Categories []string `json:"categories"`
}

// TimelineResponse is the events endpoint response body. Total is the
// filtered count before sampling and pagination.
type TimelineResponse struct {
	Events []APIEvent  `json:"events"`
	Facets FacetCounts `json:"facets"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
	HTML   string      `json:"html,omitempty"`
}
