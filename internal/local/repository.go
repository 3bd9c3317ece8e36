package local

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/turbolytics/thumbnailer/internal"
)

type Option func(*Repository)

// Repository publishes objects as files beneath a base directory. Keys map
// to relative paths, so a pairtree published locally can be synced to a
// bucket as-is.
type Repository struct {
	basePath string
	prefix   string
	logger   *zap.Logger
}

func WithPrefix(prefix string) Option {
	return func(r *Repository) {
		r.prefix = prefix
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

func New(basePath string, opts ...Option) *Repository {
	r := &Repository{
		basePath: basePath,
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Path(key string) string {
	return filepath.Join(
		r.basePath,
		r.prefix,
		filepath.FromSlash(key),
	)
}

func (r *Repository) Put(ctx context.Context, obj *internal.Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath := r.Path(obj.Key)
	r.logger.Debug("writing file",
		zap.String("path", fullPath),
		zap.Int64("content_length", obj.Len()),
	)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, obj.Body, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
