// Package sources ingests syndicated commemoration feeds as an optional,
// third provenance of timeline records alongside structured and HTML-derived
// ones.
package sources

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/sahistory/timeline/internal/dates"
	"github.com/sahistory/timeline/internal/logging"
	"github.com/sahistory/timeline/internal/models"
)

const fetchTimeout = 15 * time.Second

// FeedSource pulls configured RSS/Atom feeds of commemorative content.
type FeedSource struct {
	urls   []string
	parser *gofeed.Parser
	logger *logging.Logger
}

// NewFeedSource returns nil when no feed URLs are configured, which disables
// the source entirely.
func NewFeedSource(urls []string, logger *logging.Logger) *FeedSource {
	if len(urls) == 0 {
		return nil
	}
	return &FeedSource{
		urls:   urls,
		parser: gofeed.NewParser(),
		logger: logger,
	}
}

// Fetch returns whatever the configured feeds yield. A failing feed is logged
// and skipped; Fetch itself never fails.
func (f *FeedSource) Fetch(ctx context.Context) []models.EventRecord {
	records := make([]models.EventRecord, 0)

	for _, url := range f.urls {
		feedCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		feed, err := f.parser.ParseURLWithContext(url, feedCtx)
		cancel()
		if err != nil {
			f.logger.Warn("Failed to fetch commemoration feed", logging.WithFields(map[string]interface{}{
				"url":   url,
				"error": err.Error(),
			}))
			continue
		}

		for _, item := range feed.Items {
			records = append(records, f.toRecord(item))
		}
	}

	return records
}

func (f *FeedSource) toRecord(item *gofeed.Item) models.EventRecord {
	// Commemorative items describe historical events; the historical date
	// lives in the prose, not in the publication timestamp.
	date := dates.ExtractFromText(item.Title)
	if date == "" {
		date = dates.ExtractFromText(item.Description)
	}

	image := ""
	if item.Image != nil {
		image = item.Image.URL
	}

	return models.EventRecord{
		ID:          generateID(item.Link, item.Title),
		Title:       models.CleanText(item.Title),
		BodyExcerpt: models.Excerpt(item.Description),
		URL:         item.Link,
		ContentType: models.TypeArticle,
		Date:        date,
		ImageURL:    image,
		Location:    []string{},
		Themes:      []string{},
		Categories:  item.Categories,
		Source:      models.SourceFeed,
	}
}

func generateID(link, title string) string {
	hash := sha256.Sum256([]byte(link + title))
	return fmt.Sprintf("%x", hash[:8])
}
