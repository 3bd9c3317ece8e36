package catalog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

/*
The catalog maps image file names to the identifiers an upstream system
assigned them. It is assembled from many CSV exports which overlap and
sometimes disagree, so the first source to claim a file name wins and every
later disagreement is recorded as an Event.
*/

var ErrRead = errors.New("unable to read catalog source")

type EventKind string

const (
	// EventDuplicate is a second, different identifier for a claimed name.
	EventDuplicate EventKind = "duplicate"
	// EventUnableToInsert is an identifier for a name held by an empty identifier.
	EventUnableToInsert EventKind = "unable-to-insert"
	// EventRedundant is the same identifier seen again for a name.
	EventRedundant EventKind = "redundant"
)

type Event struct {
	Kind     EventKind `json:"kind"`
	Name     string    `json:"name"`
	Existing string    `json:"existing"`
	Rejected string    `json:"rejected"`
	Source   string    `json:"source"`
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

type Store struct {
	logger *zap.Logger
	names  map[string]string
	events []Event
}

func New(opts ...Option) *Store {
	s := &Store{
		logger: zap.NewNop(),
		names:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestAll ingests each source in the order given and returns the total
// number of names added. The first unreadable source aborts ingestion.
func (s *Store) IngestAll(paths []string) (int, error) {
	total := 0
	for _, p := range paths {
		n, err := s.Ingest(p)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (s *Store) Ingest(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w %s: %w", ErrRead, path, err)
	}
	defer f.Close()

	n, err := s.IngestReader(path, f)
	if err != nil {
		return n, fmt.Errorf("%w %s: %w", ErrRead, path, err)
	}

	s.logger.Debug("catalog source ingested",
		zap.String("source", path),
		zap.Int("added", n),
	)
	return n, nil
}

// IngestReader reads identifier,path rows from r. Rows with fewer than two
// fields are skipped.
func (s *Store) IngestReader(source string, r io.Reader) (int, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	added := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return added, err
		}
		if len(rec) < 2 {
			continue
		}

		name := BaseName(rec[1])
		if name == "" {
			continue
		}
		if s.Insert(source, name, rec[0]) {
			added++
		}
	}
	return added, nil
}

// Insert claims name for id unless it is already claimed. It reports
// whether the name was added.
func (s *Store) Insert(source, name, id string) bool {
	existing, ok := s.names[name]
	if !ok {
		s.names[name] = id
		return true
	}

	e := Event{
		Name:     name,
		Existing: existing,
		Rejected: id,
		Source:   source,
	}

	switch {
	case existing == "":
		e.Kind = EventUnableToInsert
		s.logger.Error("unable to add image file name to images map",
			zap.String("name", name),
			zap.String("id", id),
			zap.String("source", source),
		)
	case existing == id:
		e.Kind = EventRedundant
		s.logger.Debug("image file name already mapped",
			zap.String("name", name),
			zap.String("id", id),
			zap.String("source", source),
		)
	default:
		e.Kind = EventDuplicate
		s.logger.Error("duplicate image file name",
			zap.String("name", name),
			zap.String("existing", existing),
			zap.String("rejected", id),
			zap.String("source", source),
		)
	}

	s.events = append(s.events, e)
	return false
}

// Lookup returns the identifier for a file name. Names claimed by an empty
// identifier are reported as absent.
func (s *Store) Lookup(name string) (string, bool) {
	id, ok := s.names[name]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Len is the number of distinct file names in the catalog.
func (s *Store) Len() int {
	return len(s.names)
}

// Events returns a copy of the recorded events in ingestion order.
func (s *Store) Events() []Event {
	return append([]Event(nil), s.events...)
}

func (s *Store) Count(kind EventKind) int {
	n := 0
	for _, e := range s.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// BaseName returns everything after the final slash of p.
func BaseName(p string) string {
	return p[strings.LastIndex(p, "/")+1:]
}
