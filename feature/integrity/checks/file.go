package checks

import (
	"context"
	"errors"
	"os"

	"track-resolver/core/reconcile"
)

// FileReport describes the local snapshot file.
type FileReport struct {
	Path    string `json:"path"`
	Exists  bool   `json:"exists"`
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
	Status  string `json:"status"` // "ok", "empty", "error"
}

// CheckFile reports whether the snapshot at path exists and decodes.
func CheckFile(ctx context.Context, path string) *FileReport {
	report := &FileReport{Path: path, Status: "ok"}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			report.Status = "empty"
			return report
		}
		report.Status = "error"
		report.Error = err.Error()
		return report
	}
	report.Exists = true

	tracks, err := reconcile.NewFileSnapshot(path).Load(ctx)
	if err != nil {
		report.Status = "error"
		report.Error = err.Error()
		return report
	}
	report.Records = len(tracks)
	return report
}
