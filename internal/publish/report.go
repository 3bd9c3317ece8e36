package publish

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

/*
The report is a record of what a publish run did. It is a primitive for
auditing a run and for following up on failed jobs by hand.
*/

type Report struct {
	RunID        string    `json:"run_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Sources      []string  `json:"sources"`
	Destination  string    `json:"destination"`
	Size         string    `json:"size"`
	NumJobs      int       `json:"num_jobs"`
	NumProcessed int       `json:"num_processed"`
	NumSkipped   int       `json:"num_skipped"`
	NumPublished int       `json:"num_published"`
	NumFailed    int       `json:"num_failed"`
	Bytes        int64     `json:"bytes_uploaded"`
	Failures     []Failure `json:"failures"`
	Completed    bool      `json:"completed"`
}

func NewReport(runID uuid.UUID, stats Stats, failures []Failure) *Report {
	if failures == nil {
		failures = []Failure{}
	}
	return &Report{
		RunID:        runID.String(),
		StartTime:    stats.StartedAt,
		EndTime:      stats.FinishedAt,
		NumJobs:      stats.Total,
		NumProcessed: stats.Processed,
		NumSkipped:   stats.Skipped,
		NumPublished: stats.Published,
		NumFailed:    stats.Failed,
		Bytes:        stats.BytesUploaded,
		Failures:     failures,
		Completed:    stats.Processed == stats.Total,
	}
}

func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return err
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}
