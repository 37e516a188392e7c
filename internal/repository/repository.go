// Package repository exposes the content-repository read interface the
// aggregator consumes, plus the PostgreSQL implementation backed by the CMS
// content tables.
package repository

import (
	"context"

	"github.com/sahistory/timeline/internal/models"
)

// Repository is the read surface of the content repository. Implementations
// return published records only.
type Repository interface {
	// ListTimelineEligibleRecords returns published records of
	// timeline-eligible content types with their named date fields.
	ListTimelineEligibleRecords(ctx context.Context) ([]models.RawRecord, error)

	// ListCandidateHTMLBodies returns published records whose body or title
	// matches the timeline-content heuristic, for HTML extraction.
	ListCandidateHTMLBodies(ctx context.Context) ([]models.RawRecord, error)

	// ChangeTag returns an opaque watermark that changes whenever eligible
	// content changes. Used to invalidate cached aggregations.
	ChangeTag(ctx context.Context) (string, error)
}

// EligibleContentTypes are the structured content types that appear on the
// timeline.
var EligibleContentTypes = []string{
	models.TypeEvent,
	models.TypeArticle,
	models.TypeBiography,
	models.TypeTopic,
	models.TypePlace,
	models.TypeArchive,
}
