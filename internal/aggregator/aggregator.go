// Package aggregator builds the unified in-memory event set: structured
// repository records with their dates resolved, HTML-derived timeline
// entries, and optional syndicated feed items.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sahistory/timeline/internal/cache"
	"github.com/sahistory/timeline/internal/dates"
	"github.com/sahistory/timeline/internal/extract"
	"github.com/sahistory/timeline/internal/logging"
	"github.com/sahistory/timeline/internal/models"
	"github.com/sahistory/timeline/internal/repository"
	"github.com/sahistory/timeline/internal/sources"
)

const (
	cacheKeyStructured = "events:structured"
	cacheKeyDerived    = "events:with_derived"
)

// Aggregator loads, resolves, merges, and caches the event set.
type Aggregator struct {
	repo   repository.Repository
	feeds  *sources.FeedSource // nil when no feeds are configured
	cache  cache.Cache
	ttl    time.Duration
	logger *logging.Logger
}

// cachedSet is what gets stored per cache key. Tag is the repository change
// watermark captured at build time; a mismatch on read forces a rebuild.
type cachedSet struct {
	Tag    string               `json:"tag"`
	Events []models.EventRecord `json:"events"`
}

func New(repo repository.Repository, feeds *sources.FeedSource, c cache.Cache, ttl time.Duration, logger *logging.Logger) *Aggregator {
	return &Aggregator{
		repo:   repo,
		feeds:  feeds,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// Events returns the aggregated event set, sorted ascending by date.
// bypass skips the cache read (the write still happens) and is reserved for
// authenticated operational debugging.
func (a *Aggregator) Events(ctx context.Context, includeDerived, bypass bool) ([]models.EventRecord, error) {
	key := cacheKey(includeDerived)

	if !bypass && a.cache != nil {
		if set, ok := a.loadCached(key); ok && a.tagCurrent(ctx, set.Tag) {
			return set.Events, nil
		}
	}

	return a.rebuild(ctx, includeDerived)
}

// Refresh rebuilds both cache variants and returns the size of the full set.
func (a *Aggregator) Refresh(ctx context.Context) (int, error) {
	if _, err := a.rebuild(ctx, false); err != nil {
		return 0, err
	}
	events, err := a.rebuild(ctx, true)
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

// Invalidate drops both cached variants.
func (a *Aggregator) Invalidate() {
	if a.cache == nil {
		return
	}
	a.cache.Delete(cacheKeyStructured)
	a.cache.Delete(cacheKeyDerived)
}

func (a *Aggregator) rebuild(ctx context.Context, includeDerived bool) ([]models.EventRecord, error) {
	tag, err := a.repo.ChangeTag(ctx)
	if err != nil {
		// Still usable, just uncacheable against future invalidation.
		tag = ""
	}

	raws, err := a.repo.ListTimelineEligibleRecords(ctx)
	if err != nil {
		// Fail closed: no partial set.
		return nil, fmt.Errorf("repository fetch failed: %w", err)
	}

	events := make([]models.EventRecord, 0, len(raws))
	for _, raw := range raws {
		events = append(events, resolveRecord(raw))
	}

	if includeDerived {
		bodies, err := a.repo.ListCandidateHTMLBodies(ctx)
		if err != nil {
			a.logger.Warn("Failed to fetch candidate HTML bodies, continuing without derived records",
				logging.WithField("error", err.Error()))
		} else {
			for _, body := range bodies {
				events = append(events, extract.Timeline(body.Body)...)
			}
		}
	}

	if a.feeds != nil {
		events = append(events, a.feeds.Fetch(ctx)...)
	}

	events = deduplicate(events)
	sortByDate(events)

	if a.cache != nil {
		a.cache.SetWithTTL(cacheKey(includeDerived), cachedSet{Tag: tag, Events: events}, a.ttl)
	}

	a.logger.Info("Aggregation complete", logging.WithFields(map[string]interface{}{
		"total":           len(events),
		"include_derived": includeDerived,
	}))

	return events, nil
}

// resolveRecord turns a raw repository record into an EventRecord with its
// effective date resolved through the fixed field priority.
func resolveRecord(raw models.RawRecord) models.EventRecord {
	e := models.EventRecord{
		ID:          raw.ID,
		Title:       models.CleanText(raw.Title),
		BodyExcerpt: models.Excerpt(raw.Body),
		URL:         raw.URL,
		ContentType: raw.ContentType,
		ImageURL:    raw.ImageURL,
		Location:    emptyIfNil(raw.Locations),
		Themes:      emptyIfNil(raw.Themes),
		Categories:  emptyIfNil(raw.Categories),
		Source:      models.SourceStructured,
	}

	if value, ok := models.ResolveDate(raw.DateFields); ok {
		// Repository values are expected to already be canonical; normalize
		// defensively either way.
		e.Date = dates.Normalize(value)
	}
	if e.Date == "" {
		// Creation-timestamp fallback keeps the record orderable but marks it
		// for exclusion from historical date filtering.
		e.Date = raw.CreatedAt.UTC().Format("2006-01-02")
		e.NoHistoricalDate = true
	}
	return e
}

// deduplicate drops records sharing an id within one source, and records
// whose URL duplicates an earlier one. Structured and derived sets are
// disjoint by construction; feed items can shadow structured records.
func deduplicate(events []models.EventRecord) []models.EventRecord {
	seenKey := make(map[string]bool, len(events))
	seenURL := make(map[string]bool, len(events))
	result := make([]models.EventRecord, 0, len(events))

	for _, e := range events {
		key := e.Source + "|" + e.ID
		if seenKey[key] {
			continue
		}
		if e.URL != "" {
			u := strings.ToLower(strings.TrimRight(e.URL, "/"))
			if seenURL[u] {
				continue
			}
			seenURL[u] = true
		}
		seenKey[key] = true
		result = append(result, e)
	}
	return result
}

// sortByDate orders ascending by canonical date. Lexicographic comparison is
// correct because canonical dates are zero-padded ISO; empty dates group
// first.
func sortByDate(events []models.EventRecord) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date < events[j].Date
	})
}

func (a *Aggregator) loadCached(key string) (cachedSet, bool) {
	cached, ok := a.cache.Get(key)
	if !ok || cached == nil {
		return cachedSet{}, false
	}

	if set, ok := cached.(cachedSet); ok {
		return set, true
	}

	// Redis round-trips values through JSON; re-decode.
	raw, err := json.Marshal(cached)
	if err != nil {
		return cachedSet{}, false
	}
	var decoded cachedSet
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return cachedSet{}, false
	}
	if decoded.Events == nil {
		return cachedSet{}, false
	}
	return decoded, true
}

// tagCurrent reports whether a cached tag still matches the repository. A
// failing tag lookup keeps the cached set (eventual consistency is fine).
func (a *Aggregator) tagCurrent(ctx context.Context, cachedTag string) bool {
	tag, err := a.repo.ChangeTag(ctx)
	if err != nil {
		return true
	}
	return tag == cachedTag
}

func cacheKey(includeDerived bool) string {
	if includeDerived {
		return cacheKeyDerived
	}
	return cacheKeyStructured
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
