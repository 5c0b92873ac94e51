package feedfetch

import "strings"

// MatchKind records how an item was located in a document.
type MatchKind string

const (
	// MatchExact means the identifier equals the GUID, enclosure or link.
	MatchExact MatchKind = "exact"
	// MatchSubstring means the identifier was found inside one of them, or vice versa.
	MatchSubstring MatchKind = "substring"
	// MatchSegment means the enclosure contains a URL path segment.
	MatchSegment MatchKind = "segment"
)

// ItemFields holds what a feed document says about one item, plus the
// feed-level fields needed to fill artist and album.
type ItemFields struct {
	GUID            string
	Title           string
	AudioLocation   string
	DurationSeconds int
	Image           string
	Author          string

	FeedTitle  string
	FeedAuthor string
	FeedImage  string

	Match MatchKind
}

// Complete reports whether the item carries a title and an audio location.
func (f *ItemFields) Complete() bool {
	return f != nil && strings.TrimSpace(f.Title) != "" && strings.TrimSpace(f.AudioLocation) != ""
}
