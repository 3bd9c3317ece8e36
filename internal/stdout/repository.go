package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/turbolytics/thumbnailer/internal"
)

// Repository prints one line per object instead of storing it. Used for
// dry runs.
type Repository struct {
	w      io.Writer
	prefix string
}

type Option func(*Repository)

func WithWriter(w io.Writer) Option {
	return func(r *Repository) {
		r.w = w
	}
}

func WithPrefix(prefix string) Option {
	return func(r *Repository) {
		r.prefix = prefix
	}
}

func New(opts ...Option) *Repository {
	r := &Repository{w: os.Stdout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Put(ctx context.Context, obj *internal.Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(r.w, "%s\t%s\t%d\n", path.Join(r.prefix, obj.Key), obj.ContentType, obj.Len())
	return err
}
