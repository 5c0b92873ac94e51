package feedfetch

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"track-resolver/core/utils"

	"github.com/mmcdole/gofeed"
)

// matchItem finds the entry identified by id. Exact matches on GUID,
// enclosure or link take precedence over substring matches.
func matchItem(items []*gofeed.Item, id string) (*gofeed.Item, MatchKind) {
	id = strings.TrimSpace(id)

	for _, item := range items {
		if item == nil {
			continue
		}
		for _, cand := range candidates(item) {
			if cand == id {
				return item, MatchExact
			}
		}
	}

	for _, item := range items {
		if item == nil {
			continue
		}
		for _, cand := range candidates(item) {
			if containsEither(cand, id) {
				return item, MatchSubstring
			}
		}
	}
	return nil, ""
}

func candidates(item *gofeed.Item) []string {
	out := make([]string, 0, 3)
	for _, s := range []string{item.GUID, enclosureURL(item), item.Link} {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// containsEither reports substring containment in either direction. Ids
// shorter than minTokenLen only match as a whole token, so "I2" finds
// "urn:I2:v1" but "1" does not match every GUID with a digit in it.
func containsEither(cand, id string) bool {
	if len(id) >= minTokenLen {
		if strings.Contains(cand, id) {
			return true
		}
	} else if containsToken(cand, id) {
		return true
	}
	return len(cand) >= minTokenLen && strings.Contains(id, cand) && utils.LooksLikeURL(cand)
}

const minTokenLen = 4

// containsToken reports whether tok occurs in s delimited by non-alphanumerics
// or the ends of s.
func containsToken(s, tok string) bool {
	if tok == "" {
		return false
	}
	for off := 0; off < len(s); {
		i := strings.Index(s[off:], tok)
		if i < 0 {
			return false
		}
		start := off + i
		end := start + len(tok)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(s) || !isWordRune(after)) {
			return true
		}
		off = start + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func enclosureURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if enc.Type == "" || strings.HasPrefix(enc.Type, "audio/") || strings.HasPrefix(enc.Type, "video/") {
			return strings.TrimSpace(enc.URL)
		}
	}
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			return strings.TrimSpace(enc.URL)
		}
	}
	return ""
}

// extract maps a gofeed entry to ItemFields without defaulting anything.
func extract(feed *gofeed.Feed, item *gofeed.Item, kind MatchKind) *ItemFields {
	out := &ItemFields{
		GUID:          item.GUID,
		Title:         strings.TrimSpace(item.Title),
		AudioLocation: enclosureURL(item),
		Match:         kind,
		FeedTitle:     strings.TrimSpace(feed.Title),
	}

	if item.Image != nil {
		out.Image = item.Image.URL
	}
	if item.Author != nil {
		out.Author = item.Author.Name
	}
	if ext := item.ITunesExt; ext != nil {
		out.DurationSeconds = utils.ParseClockSeconds(ext.Duration)
		if out.Image == "" {
			out.Image = ext.Image
		}
		if out.Author == "" {
			out.Author = ext.Author
		}
	}

	if feed.Image != nil {
		out.FeedImage = feed.Image.URL
	}
	if feed.Author != nil {
		out.FeedAuthor = feed.Author.Name
	}
	if ext := feed.ITunesExt; ext != nil {
		if out.FeedImage == "" {
			out.FeedImage = ext.Image
		}
		if out.FeedAuthor == "" {
			out.FeedAuthor = ext.Author
		}
	}
	return out
}
