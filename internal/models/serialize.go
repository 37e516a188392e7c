package models

import "strings"

// API converts a record to its wire shape. The switch over Source is
// exhaustive: a new provenance variant must decide its own serialization.
func (e EventRecord) API() APIEvent {
	out := APIEvent{
		ID:         e.ID,
		Title:      CleanText(e.Title),
		Date:       e.Date,
		Body:       Truncate(e.BodyExcerpt, ExcerptLength),
		URL:        e.URL,
		Image:      e.ImageURL,
		Location:   strings.Join(e.Location, ", "),
		Themes:     e.Themes,
		Categories: e.Categories,
	}
	if out.Themes == nil {
		out.Themes = []string{}
	}
	if out.Categories == nil {
		out.Categories = []string{}
	}

	switch e.Source {
	case SourceDerived:
		// Synthetic records always present as timeline markup, whatever the
		// extractor guessed.
		out.Type = TypeTimelineHTML
	case SourceFeed:
		out.Type = e.ContentType
		if out.Type == "" {
			out.Type = TypeArticle
		}
	case SourceStructured:
		out.Type = e.ContentType
	default:
		out.Type = e.ContentType
	}
	return out
}

// APIEvents serializes a slice, never returning nil.
func APIEvents(events []EventRecord) []APIEvent {
	out := make([]APIEvent, 0, len(events))
	for _, e := range events {
		out = append(out, e.API())
	}
	return out
}
