package cmd

import (
	"fmt"
	"strconv"
	"time"

	"track-resolver/core/reconcile"
	"track-resolver/core/scheduler"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    60,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// renderReport prints the run counters and, when maxReasons > 0, the first
// maxReasons items that did not resolve.
func renderReport(r *scheduler.Report, maxReasons int) string {
	rows := [][]string{
		{"Total", strconv.Itoa(r.Total)},
		{"Resolved", strconv.Itoa(r.Resolved)},
		{"Placeholder", strconv.Itoa(r.Placeholder)},
		{"Failed", strconv.Itoa(r.Failed)},
		{"Skipped", strconv.Itoa(r.Skipped)},
		{"Unfinished", strconv.Itoa(r.Unfinished)},
		{"Retries", strconv.Itoa(r.Retries)},
		{"Throttle pauses", strconv.Itoa(r.Throttles)},
		{"Elapsed", r.Elapsed.Round(time.Millisecond).String()},
	}
	out := fmt.Sprintf("Run %s", r.RunID)
	if r.Cancelled {
		out += " (cancelled)"
	}
	out += "\n" + renderTable([]string{"Outcome", "Count"}, rows, []columnAlignment{alignLeft, alignRight})

	if maxReasons <= 0 || len(r.Reasons) == 0 {
		return out
	}
	var reasons [][]string
	for i, o := range r.Reasons {
		if i == maxReasons {
			reasons = append(reasons, []string{"", fmt.Sprintf("... %d more", len(r.Reasons)-maxReasons), "", "", ""})
			break
		}
		reasons = append(reasons, []string{o.FeedID, o.ItemID, string(o.State), string(o.Class), o.Reason})
	}
	return out + "\n" + renderTable([]string{"Feed", "Item", "State", "Class", "Reason"}, reasons, nil)
}

// renderTrack prints one record as field/value pairs.
func renderTrack(t reconcile.ResolvedTrack) string {
	rows := [][]string{
		{"Feed", t.FeedID},
		{"Item", t.ItemID},
		{"State", string(t.State)},
		{"Strategy", string(t.Strategy)},
		{"Title", t.Title},
		{"Artist", t.Artist},
		{"Album", t.Album},
		{"Audio", t.AudioLocation},
		{"Duration", strconv.Itoa(t.DurationSeconds) + "s"},
		{"Artwork", t.ArtworkLocation},
		{"Attempts", strconv.Itoa(t.AttemptCount)},
	}
	if t.FailureClass != reconcile.FailureNone {
		rows = append(rows, []string{"Failure", string(t.FailureClass) + ": " + t.FailureReason})
	}
	if !t.LastAttemptedAt.IsZero() {
		rows = append(rows, []string{"Last attempt", t.LastAttemptedAt.Format("2006-01-02 15:04:05")})
	}
	if !t.LastResolvedAt.IsZero() {
		rows = append(rows, []string{"Last resolved", t.LastResolvedAt.Format("2006-01-02 15:04:05")})
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}
