package lookup

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FeedInfo is the directory's view of a feed.
type FeedInfo struct {
	FeedID   string
	Title    string
	Location string
	Artwork  string
	Author   string
}

// ItemInfo is the directory's view of one item within a feed.
type ItemInfo struct {
	FeedID          string
	ItemID          string
	Title           string
	AudioLocation   string
	DurationSeconds int
	Image           string
	Author          string
}

// Complete reports whether the item carries enough to be playable.
func (i *ItemInfo) Complete() bool {
	return i != nil && strings.TrimSpace(i.Title) != "" && strings.TrimSpace(i.AudioLocation) != ""
}

// flexStatus accepts "true", true, "false" and false.
type flexStatus bool

func (s *flexStatus) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*s = flexStatus(t)
	case string:
		ok, _ := strconv.ParseBool(t)
		*s = flexStatus(ok)
	default:
		*s = false
	}
	return nil
}

type feedResponse struct {
	Status      flexStatus `json:"status"`
	Description string     `json:"description"`
	// Feed is an object when found and an empty array otherwise.
	Feed json.RawMessage `json:"feed"`
}

type feedObject struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	Artwork     string `json:"artwork"`
	Author      string `json:"author"`
	PodcastGUID string `json:"podcastGuid"`
}

type itemResponse struct {
	Status      flexStatus      `json:"status"`
	Description string          `json:"description"`
	Episode     json.RawMessage `json:"episode"`
}

type episodeObject struct {
	Title        string `json:"title"`
	EnclosureURL string `json:"enclosureUrl"`
	Duration     any    `json:"duration"`
	Image        string `json:"image"`
	FeedImage    string `json:"feedImage"`
	Author       string `json:"author"`
}

// decodeObject unmarshals raw into v when raw holds a JSON object.
// It reports false for null, arrays and absent values.
func decodeObject(raw json.RawMessage, v any) (bool, error) {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}
