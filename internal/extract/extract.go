// Package extract pulls synthetic event records out of timeline markup
// embedded in free-text HTML bodies.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/sahistory/timeline/internal/dates"
	"github.com/sahistory/timeline/internal/models"
)

// Candidate nodes: a timeline item container, a timeline event list item, or
// anything carrying an explicit date attribute.
const candidateSelector = ".timeline-item, li.timeline-event, [data-timeline-date]"

const (
	titleSelector   = "h1, h2, h3, h4, h5, h6, .timeline-title"
	dateSelector    = ".timeline-date"
	contentSelector = ".timeline-content"
)

// Timeline parses an HTML body and returns one derived EventRecord per
// recognizable timeline entry. Malformed markup degrades to no matches; this
// never errors.
func Timeline(html string) []models.EventRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var events []models.EventRecord
	doc.Find(candidateSelector).Each(func(_ int, s *goquery.Selection) {
		title := models.CleanText(s.Find(titleSelector).First().Text())

		raw := s.Find(dateSelector).First().Text()
		if raw == "" {
			raw, _ = s.Attr("data-timeline-date")
		}
		date := dates.ExtractFromText(raw)
		if date == "" {
			// No explicit date element; scan the whole entry.
			date = dates.ExtractFromText(s.Text())
		}

		// Entries with neither a title nor a date are discarded silently.
		if title == "" && date == "" {
			return
		}

		body := s.Find(contentSelector).First().Text()
		if body == "" {
			body = s.Find("p").First().Text()
		}

		events = append(events, models.EventRecord{
			ID:          uuid.New().String(),
			Title:       title,
			BodyExcerpt: models.Truncate(models.CleanText(body), models.ExcerptLength),
			ContentType: models.TypeTimelineHTML,
			Date:        date,
			Location:    []string{},
			Themes:      []string{},
			Categories:  []string{},
			Source:      models.SourceDerived,
		})
	})

	return events
}
