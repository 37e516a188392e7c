package httpapi

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sahistory/timeline/internal/aggregator"
	"github.com/sahistory/timeline/internal/auth"
	"github.com/sahistory/timeline/internal/dates"
	"github.com/sahistory/timeline/internal/logging"
	"github.com/sahistory/timeline/internal/models"
	"github.com/sahistory/timeline/internal/timeline"
)

// Parameter clamps for the public events endpoint. Malformed or out-of-range
// values are defaulted, never rejected.
const (
	defaultLimit = 2000
	maxLimit     = 5000
	maxOffset    = 10000

	todayDefaultLimit = 100
	todayMaxLimit     = 500
)

var (
	isoDate  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	monthDay = regexp.MustCompile(`^\d{2}-\d{2}$`)
)

// TimelineAPI serves the timeline query surface.
type TimelineAPI struct {
	agg            *aggregator.Aggregator
	authMiddleware *auth.Middleware
	logger         *logging.Logger
}

// NewTimelineAPI creates the timeline API handler.
func NewTimelineAPI(agg *aggregator.Aggregator, authMiddleware *auth.Middleware, logger *logging.Logger) *TimelineAPI {
	return &TimelineAPI{
		agg:            agg,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// RegisterRoutes registers timeline routes on the given mux.
func (api *TimelineAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/timeline/events", corsMiddleware(api.handleEvents))
	mux.HandleFunc("/api/timeline/today", corsMiddleware(api.handleToday))
	mux.HandleFunc("/api/timeline/refresh", corsMiddleware(api.authMiddleware.RequireAdmin(api.handleRefresh)))
}

// handleEvents runs the full query pipeline: validate, aggregate, filter,
// facet, sort, sample, paginate, serialize.
func (api *TimelineAPI) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	criteria := parseCriteria(query)
	limit := clampInt(query.Get("limit"), defaultLimit, 1, maxLimit)
	offset := clampInt(query.Get("offset"), 0, 0, maxOffset)

	includeDerived := query.Get("include_html") != "false"
	bypass := query.Get("nocache") == "1" && api.authMiddleware.IsAdmin(r)

	events, err := api.agg.Events(r.Context(), includeDerived, bypass)
	if err != nil {
		api.logger.Error("Aggregation failed", logging.WithField("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "content repository unavailable",
		})
		return
	}

	filtered, facets := timeline.FilterAndFacet(events, criteria)
	sorted := timeline.Sort(filtered, criteria.Sort)

	page := sorted
	if len(page) > limit {
		page = timeline.Sample(page, limit)
	}
	page = paginate(page, offset, limit)

	resp := models.TimelineResponse{
		Events: models.APIEvents(page),
		Facets: facets,
		Total:  len(filtered),
		Limit:  limit,
		Offset: offset,
	}

	if query.Get("format") == "html" {
		resp.HTML = renderFragment(resp.Events)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleToday lists records whose month and day match the requested (or
// current) calendar day, covering placeholder-year dates from recurring
// "this day" fields.
func (api *TimelineAPI) handleToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	day := query.Get("date")
	if !monthDay.MatchString(day) {
		day = time.Now().UTC().Format("01-02")
	}
	limit := clampInt(query.Get("limit"), todayDefaultLimit, 1, todayMaxLimit)

	events, err := api.agg.Events(r.Context(), true, false)
	if err != nil {
		api.logger.Error("Aggregation failed", logging.WithField("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "content repository unavailable",
		})
		return
	}

	matched := make([]models.EventRecord, 0)
	for _, e := range events {
		if e.NoHistoricalDate {
			continue
		}
		if dates.MonthDay(e.Date) == day {
			matched = append(matched, e)
		}
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":   day,
		"events": models.APIEvents(matched),
		"total":  len(matched),
	})
}

// handleRefresh rebuilds the aggregation cache. Admin only.
func (api *TimelineAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	api.agg.Invalidate()
	count, err := api.agg.Refresh(r.Context())
	if err != nil {
		api.logger.Error("Refresh failed", logging.WithField("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "content repository unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"count":  count,
	})
}

// parseCriteria maps query parameters onto FilterCriteria. Unrecognized or
// malformed values are dropped.
func parseCriteria(query map[string][]string) models.FilterCriteria {
	c := models.FilterCriteria{Sort: models.SortDateAsc}

	if v := first(query, "content_type"); v != "" && v != "all" && validContentType(v) {
		c.ContentType = v
	}
	if v := first(query, "time_period"); v != "" && v != "all" && timeline.ValidTimePeriod(v) {
		c.TimePeriod = v
	}

	c.GeographicalLocation = multi(query, "geographical_location")
	c.Themes = multi(query, "themes")
	c.Categories = multi(query, "categories")

	if v := strings.TrimSpace(first(query, "keywords")); keywordLengthOK(v) {
		c.Keywords = v
	}
	if v := first(query, "start_date"); isoDate.MatchString(v) {
		c.StartDate = v
	}
	if v := first(query, "end_date"); isoDate.MatchString(v) {
		c.EndDate = v
	}

	switch v := first(query, "sort"); v {
	case models.SortDateAsc, models.SortDateDesc, models.SortTitle, models.SortRelevance:
		c.Sort = v
	}

	return c
}

// keywordLengthOK bounds the trimmed query to 2-200 characters, counted in
// runes so multi-byte input is judged the same as ASCII.
func keywordLengthOK(v string) bool {
	n := utf8.RuneCountInString(v)
	return n >= 2 && n <= 200
}

func validContentType(v string) bool {
	switch v {
	case models.TypeEvent, models.TypeArticle, models.TypeBiography,
		models.TypeTopic, models.TypePlace, models.TypeArchive, models.TypeTimelineHTML:
		return true
	}
	return false
}

func paginate(events []models.EventRecord, offset, limit int) []models.EventRecord {
	if offset >= len(events) {
		return []models.EventRecord{}
	}
	end := offset + limit
	if end > len(events) {
		end = len(events)
	}
	return events[offset:end]
}

func clampInt(raw string, def, min, max int) int {
	n := def
	if raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			n = parsed
		}
	}
	if n < min {
		n = min
	}
	if n > max {
		n = max
	}
	return n
}

// first returns the first value for a key, repeated values for multi().
func first(query map[string][]string, key string) string {
	if vs := query[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// multi accepts both repeated parameters and comma-separated lists.
func multi(query map[string][]string, key string) []string {
	var out []string
	for _, v := range query[key] {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
