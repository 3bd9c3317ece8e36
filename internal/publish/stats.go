package publish

import "time"

type Stats struct {
	Total         int   `json:"total"`
	Processed     int   `json:"processed"`
	Skipped       int   `json:"skipped"`
	Published     int   `json:"published"`
	Failed        int   `json:"failed"`
	BytesUploaded int64 `json:"bytes_uploaded"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// Current is the identifier of the job in flight.
	Current string `json:"current,omitempty"`
	State   State  `json:"state,omitempty"`
}

// Failure is a job that could not be published; re-running picks it up.
type Failure struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	State State  `json:"state"`
	Error string `json:"error"`
}
