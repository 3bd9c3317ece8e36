package publish

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

var ErrJobSource = errors.New("unable to read job source")

// Job asks for a thumbnail of the image at Path, published under ID.
type Job struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// LoadJobs reads every job CSV in order. The whole list is held in memory.
func LoadJobs(paths []string, logger *zap.Logger) ([]Job, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var jobs []Job
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrJobSource, p, err)
		}

		loaded, skipped, err := ReadJobs(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrJobSource, p, err)
		}

		if skipped > 0 {
			logger.Warn("skipped malformed job rows",
				zap.String("source", p),
				zap.Int("skipped", skipped),
			)
		}
		logger.Debug("job source loaded", zap.String("source", p), zap.Int("jobs", len(loaded)))
		jobs = append(jobs, loaded...)
	}
	return jobs, nil
}

// ReadJobs parses identifier,path rows and reports how many rows had too
// few fields.
func ReadJobs(r io.Reader) ([]Job, int, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var jobs []Job
	skipped := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, skipped, err
		}
		if len(rec) < 2 {
			skipped++
			continue
		}
		jobs = append(jobs, Job{ID: rec[0], Path: rec[1]})
	}
	return jobs, skipped, nil
}
