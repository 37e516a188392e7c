package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sahistory/timeline/internal/aggregator"
	"github.com/sahistory/timeline/internal/auth"
	"github.com/sahistory/timeline/internal/models"
	"github.com/sahistory/timeline/internal/testutil"
)

type fakeRepo struct {
	records []models.RawRecord
	err     error
}

func (f *fakeRepo) ListTimelineEligibleRecords(ctx context.Context) ([]models.RawRecord, error) {
	return f.records, f.err
}

func (f *fakeRepo) ListCandidateHTMLBodies(ctx context.Context) ([]models.RawRecord, error) {
	return nil, nil
}

func (f *fakeRepo) ChangeTag(ctx context.Context) (string, error) {
	return "tag-1", nil
}

func rawEvent(id, title, contentType, date string) models.RawRecord {
	return models.RawRecord{
		ID:          id,
		Title:       title,
		Body:        "Body for " + title,
		URL:         "https://example.org/" + id,
		ContentType: contentType,
		DateFields:  map[string]string{models.FieldEventDate: date},
		CreatedAt:   time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testServer(repo *fakeRepo) (*Server, *auth.Service) {
	svc := auth.NewService("api-test-secret", "timeline", "timeline-admin")
	logger := testutil.NullLogger()
	agg := aggregator.New(repo, nil, nil, time.Minute, logger)
	return New(agg, auth.NewMiddleware(svc), logger), svc
}

func getEvents(t *testing.T, handler http.Handler, query string) models.TimelineResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/timeline/events"+query, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s: status %d, body %s", query, rec.Code, rec.Body.String())
	}
	var resp models.TimelineResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestEvents_ContentTypeFilterWithFacets(t *testing.T) {
	repo := &fakeRepo{}
	for i := 0; i < 5; i++ {
		repo.records = append(repo.records, rawEvent(fmt.Sprintf("e%d", i), fmt.Sprintf("Event %d", i), models.TypeEvent, fmt.Sprintf("196%d-01-01", i)))
	}
	for i := 0; i < 3; i++ {
		repo.records = append(repo.records, rawEvent(fmt.Sprintf("a%d", i), fmt.Sprintf("Article %d", i), models.TypeArticle, fmt.Sprintf("197%d-01-01", i)))
	}

	srv, _ := testServer(repo)
	resp := getEvents(t, srv.Handler(), "?content_type=event&limit=10")

	if len(resp.Events) != 5 {
		t.Fatalf("events = %d, want 5", len(resp.Events))
	}
	if resp.Total != 5 {
		t.Errorf("total = %d, want 5", resp.Total)
	}
	for _, e := range resp.Events {
		if e.Type != models.TypeEvent {
			t.Errorf("event %s has type %s", e.ID, e.Type)
		}
	}
	if resp.Facets[models.FacetContentType][models.TypeEvent] != 5 {
		t.Errorf("contentType facet = %v", resp.Facets[models.FacetContentType])
	}
	if _, ok := resp.Facets[models.FacetContentType][models.TypeArticle]; ok {
		t.Error("excluded articles must not appear in the facet")
	}
}

func TestEvents_KeywordsCaseInsensitive(t *testing.T) {
	repo := &fakeRepo{records: []models.RawRecord{
		rawEvent("m1", "Nelson Mandela is born", models.TypeEvent, "1918-07-18"),
		rawEvent("m2", "Release from prison", models.TypeEvent, "1990-02-11"),
		rawEvent("s1", "Sharpeville massacre", models.TypeEvent, "1960-03-21"),
	}}

	srv, _ := testServer(repo)
	resp := getEvents(t, srv.Handler(), "?keywords=mandela")

	if resp.Total != 1 {
		t.Fatalf("total = %d, want 1", resp.Total)
	}
	if resp.Events[0].ID != "m1" {
		t.Errorf("matched %s, want m1", resp.Events[0].ID)
	}
}

func TestEvents_SamplingKeepsDecadeSpread(t *testing.T) {
	repo := &fakeRepo{records: []models.RawRecord{
		rawEvent("a", "First", models.TypeEvent, "1950-01-01"),
		rawEvent("b", "Second", models.TypeEvent, "1950-06-01"),
		rawEvent("c", "Third", models.TypeEvent, "2020-01-01"),
	}}

	srv, _ := testServer(repo)
	resp := getEvents(t, srv.Handler(), "?limit=2")

	if len(resp.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(resp.Events))
	}
	if resp.Total != 3 {
		t.Errorf("total = %d, want 3 (pre-sampling count)", resp.Total)
	}
	years := map[string]bool{}
	for _, e := range resp.Events {
		years[e.Date[:4]] = true
	}
	if !years["2020"] {
		t.Errorf("sampling dropped the only 2020s event: %v", resp.Events)
	}
	if !years["1950"] {
		t.Errorf("sampling dropped the 1950s entirely: %v", resp.Events)
	}
}

func TestEvents_PermissiveParamClamping(t *testing.T) {
	repo := &fakeRepo{records: []models.RawRecord{
		rawEvent("e1", "Only event", models.TypeEvent, "1960-03-21"),
	}}
	srv, _ := testServer(repo)
	handler := srv.Handler()

	cases := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"non-numeric limit", "?limit=banana", defaultLimit, 0},
		{"zero limit", "?limit=0", 1, 0},
		{"oversized limit", "?limit=999999", maxLimit, 0},
		{"negative offset", "?offset=-5", defaultLimit, 0},
		{"oversized offset", "?offset=99999", defaultLimit, maxOffset},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := getEvents(t, handler, tc.query)
			if resp.Limit != tc.wantLimit {
				t.Errorf("limit = %d, want %d", resp.Limit, tc.wantLimit)
			}
			if resp.Offset != tc.wantOffset {
				t.Errorf("offset = %d, want %d", resp.Offset, tc.wantOffset)
			}
		})
	}
}

func TestEvents_KeywordBoundsCountRunes(t *testing.T) {
	repo := &fakeRepo{records: []models.RawRecord{
		rawEvent("e1", "Sharpeville massacre", models.TypeEvent, "1960-03-21"),
	}}
	srv, _ := testServer(repo)
	handler := srv.Handler()

	// 150 two-byte runes: within the 200-character bound even though the
	// byte length is 300, so the filter applies and nothing matches.
	long := url.QueryEscape(strings.Repeat("é", 150))
	resp := getEvents(t, handler, "?keywords="+long)
	if resp.Total != 0 {
		t.Errorf("150-rune keyword not applied: total = %d", resp.Total)
	}

	// A single rune is under the minimum regardless of byte width.
	resp = getEvents(t, handler, "?keywords="+url.QueryEscape("é"))
	if resp.Total != 1 {
		t.Errorf("1-rune keyword should be dropped: total = %d", resp.Total)
	}

	// 201 runes exceeds the maximum.
	over := url.QueryEscape(strings.Repeat("a", 201))
	resp = getEvents(t, handler, "?keywords="+over)
	if resp.Total != 1 {
		t.Errorf("201-rune keyword should be dropped: total = %d", resp.Total)
	}
}

func TestEvents_MalformedFiltersDropped(t *testing.T) {
	repo := &fakeRepo{records: []models.RawRecord{
		rawEvent("e1", "Sharpeville massacre", models.TypeEvent, "1960-03-21"),
	}}
	srv, _ := testServer(repo)

	// A bogus content type, a bogus date, and a one-character keyword should
	// all be ignored rather than rejected.
	resp := getEvents(t, srv.Handler(), "?content_type=bogus&start_date=soon&keywords=x")
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1 (malformed filters dropped)", resp.Total)
	}
}

func TestEvents_OffsetPagination(t *testing.T) {
	repo := &fakeRepo{}
	for i := 0; i < 5; i++ {
		repo.records = append(repo.records, rawEvent(fmt.Sprintf("e%d", i), fmt.Sprintf("Event %d", i), models.TypeEvent, fmt.Sprintf("196%d-01-01", i)))
	}
	srv, _ := testServer(repo)

	resp := getEvents(t, srv.Handler(), "?limit=10&offset=2")
	if len(resp.Events) != 3 {
		t.Fatalf("events = %d, want 3", len(resp.Events))
	}
	if resp.Events[0].ID != "e2" || resp.Events[2].ID != "e4" {
		t.Errorf("page = [%s .. %s], want [e2 .. e4]", resp.Events[0].ID, resp.Events[2].ID)
	}

	resp = getEvents(t, srv.Handler(), "?limit=10&offset=100")
	if len(resp.Events) != 0 {
		t.Errorf("past-the-end offset returned %d events", len(resp.Events))
	}
}

func TestEvents_RepositoryFailure(t *testing.T) {
	srv, _ := testServer(&fakeRepo{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/timeline/events", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestEvents_HTMLFragment(t *testing.T) {
	repo := &fakeRepo{records: []models.RawRecord{
		rawEvent("e1", "Sharpeville massacre", models.TypeEvent, "1960-03-21"),
	}}
	srv, _ := testServer(repo)

	resp := getEvents(t, srv.Handler(), "?format=html")
	if !strings.Contains(resp.HTML, `<ul class="timeline">`) {
		t.Errorf("fragment missing list wrapper: %q", resp.HTML)
	}
	if !strings.Contains(resp.HTML, "Sharpeville massacre") {
		t.Errorf("fragment missing event title: %q", resp.HTML)
	}

	resp = getEvents(t, srv.Handler(), "")
	if resp.HTML != "" {
		t.Error("html must be absent unless format=html")
	}
}

func TestToday_MatchesMonthDay(t *testing.T) {
	repo := &fakeRepo{records: []models.RawRecord{
		rawEvent("m1", "Nelson Mandela is born", models.TypeBiography, "1918-07-18"),
		rawEvent("m2", "Another July 18 event", models.TypeEvent, "1994-07-18"),
		rawEvent("s1", "Sharpeville massacre", models.TypeEvent, "1960-03-21"),
	}}
	srv, _ := testServer(repo)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/timeline/today?date=07-18", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Date   string            `json:"date"`
		Events []models.APIEvent `json:"events"`
		Total  int               `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 {
		t.Fatalf("total = %d, want 2", resp.Total)
	}
	if resp.Events[0].ID != "m1" || resp.Events[1].ID != "m2" {
		t.Errorf("events = [%s %s], want ascending [m1 m2]", resp.Events[0].ID, resp.Events[1].ID)
	}
}

func TestRefresh_RequiresAdmin(t *testing.T) {
	repo := &fakeRepo{records: []models.RawRecord{
		rawEvent("e1", "Sharpeville massacre", models.TypeEvent, "1960-03-21"),
	}}
	srv, svc := testServer(repo)
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/timeline/refresh", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous refresh: status = %d, want 401", rec.Code)
	}

	token, err := svc.GenerateToken("ops", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/timeline/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin refresh: status = %d, body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Count != 1 {
		t.Errorf("refresh body = %+v", body)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(&fakeRepo{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := testServer(&fakeRepo{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/timeline/events", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
}
