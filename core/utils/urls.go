package utils

import (
	"net/url"
	"strings"
)

// LooksLikeURL reports whether s parses as an absolute http(s) URL.
func LooksLikeURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// TrailingSegment returns the last non-empty path segment of a URL,
// ignoring query and fragment. It returns "" when there is none.
func TrailingSegment(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segs) - 1; i >= 0; i-- {
		if seg, err := url.PathUnescape(segs[i]); err == nil && seg != "" {
			return seg
		} else if segs[i] != "" {
			return segs[i]
		}
	}
	return ""
}
