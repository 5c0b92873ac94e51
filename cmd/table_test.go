package cmd

import (
	"testing"
	"time"

	"track-resolver/core/reconcile"
	"track-resolver/core/scheduler"

	"github.com/stretchr/testify/assert"
)

func TestRenderReport(t *testing.T) {
	report := &scheduler.Report{
		RunID:       "run-1",
		Total:       3,
		Resolved:    1,
		Placeholder: 2,
		Elapsed:     1500 * time.Millisecond,
		Cancelled:   true,
		Reasons: []scheduler.Outcome{
			{FeedID: "F", ItemID: "a", State: reconcile.StatePlaceholder, Class: reconcile.FailureNotFound, Reason: "no such episode"},
			{FeedID: "F", ItemID: "b", State: reconcile.StatePlaceholder, Class: reconcile.FailureTransient, Reason: "503"},
		},
	}

	out := renderReport(report, 1)
	assert.Contains(t, out, "Run run-1 (cancelled)")
	assert.Contains(t, out, "Placeholder")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "no such episode")
	assert.Contains(t, out, "... 1 more")
	assert.NotContains(t, out, "503")

	assert.NotContains(t, renderReport(report, 0), "no such episode")
}

func TestRenderTrack(t *testing.T) {
	out := renderTrack(reconcile.ResolvedTrack{
		FeedID: "F", ItemID: "I", Title: "[unresolved] I", DurationSeconds: 180,
		State: reconcile.StatePlaceholder, FailureClass: reconcile.FailureNotFound, FailureReason: "gone",
	})
	assert.Contains(t, out, "[unresolved] I")
	assert.Contains(t, out, "180s")
	assert.Contains(t, out, "not-found: gone")
}

func TestRenderTable_Empty(t *testing.T) {
	assert.Equal(t, "", renderTable(nil, nil, nil))
}
