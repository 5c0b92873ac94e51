package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"track-resolver/core/scheduler"
)

// parseRefs reads references either as a JSON array of
// {"feedId","itemId"} objects or as "feedId,itemId" lines. Blank lines and
// lines starting with # are ignored. Item ids may contain commas; only the
// first comma separates the fields.
func parseRefs(r io.Reader) ([]scheduler.Ref, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var refs []scheduler.Ref
		if err := json.Unmarshal(trimmed, &refs); err != nil {
			return nil, fmt.Errorf("decode input: %w", err)
		}
		return refs, nil
	}

	var refs []scheduler.Ref
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		feedID, itemID, ok := strings.Cut(text, ",")
		if !ok {
			return nil, fmt.Errorf("line %d: expected feedId,itemId", line)
		}
		refs = append(refs, scheduler.Ref{FeedID: strings.TrimSpace(feedID), ItemID: strings.TrimSpace(itemID)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return refs, nil
}
