package progress

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Tracker remembers which identifiers have already been published.
type Tracker interface {
	Contains(id string) bool

	// Record durably appends id. Once Record returns nil the id survives a crash.
	Record(id string) error

	Len() int
	Close() error
}

// Disabled is used when no progress log is configured; every run starts over.
type Disabled struct{}

func (Disabled) Contains(id string) bool { return false }
func (Disabled) Record(id string) error  { return nil }
func (Disabled) Len() int                { return 0 }
func (Disabled) Close() error            { return nil }

type Option func(*Log)

func WithLogger(logger *zap.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

// Log is an append-only CSV file of published identifiers, one per row.
type Log struct {
	path   string
	logger *zap.Logger
	file   *os.File
	writer *csv.Writer
	done   map[string]struct{}
}

// Open returns a Disabled tracker for an empty path. Otherwise the log at
// path is replayed into memory and opened for appending, creating it if
// needed.
func Open(path string, opts ...Option) (Tracker, error) {
	if path == "" {
		return Disabled{}, nil
	}
	return OpenLog(path, opts...)
}

func OpenLog(path string, opts ...Option) (*Log, error) {
	l := &Log{
		path:   path,
		logger: zap.NewNop(),
		done:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.replay(); err != nil {
		return nil, fmt.Errorf("progress log %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("progress log %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("progress log %s: %w", path, err)
	}
	if err := terminate(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("progress log %s: %w", path, err)
	}
	l.file = f
	l.writer = csv.NewWriter(f)

	return l, nil
}

// terminate ends an unfinished last row so the next append starts on its
// own line.
func terminate(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		return nil
	}

	if _, err := f.Write([]byte("\n")); err != nil {
		return err
	}
	return f.Sync()
}

func (l *Log) replay() error {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		l.logger.Info("no progress log found, starting fresh", zap.String("path", l.path))
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(rec) == 0 || rec[0] == "" {
			continue
		}
		l.done[rec[0]] = struct{}{}
	}

	if len(l.done) > 0 {
		l.logger.Info("ignoring previously created thumbnails",
			zap.String("path", l.path),
			zap.Int("completed", len(l.done)),
		)
	}
	return nil
}

func (l *Log) Contains(id string) bool {
	_, ok := l.done[id]
	return ok
}

func (l *Log) Record(id string) error {
	if l.Contains(id) {
		return nil
	}

	if err := l.writer.Write([]string{id}); err != nil {
		return err
	}
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		return err
	}
	if err := l.file.Sync(); err != nil {
		return err
	}

	l.done[id] = struct{}{}
	l.logger.Debug("progress recorded", zap.String("id", id))
	return nil
}

func (l *Log) Len() int {
	return len(l.done)
}

func (l *Log) Path() string {
	return l.path
}

func (l *Log) Close() error {
	if l.file == nil {
		return nil
	}
	l.writer.Flush()
	err := l.file.Close()
	l.file = nil
	return err
}
