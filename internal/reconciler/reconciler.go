package reconciler

import (
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/turbolytics/thumbnailer/internal/inventory"
)

const DefaultExtension = ".tif"

// Catalog resolves an image file name to its identifier.
type Catalog interface {
	Lookup(name string) (string, bool)
}

// Entry is a reconciled image: an absolute path on disk and the
// identifier the catalog assigns to its file name.
type Entry struct {
	Path string
	ID   string
}

type Result struct {
	// Entries is sorted by Path and holds each path once.
	Entries []Entry

	// Conflicts counts inventory rows repeating an already reconciled path.
	Conflicts int
	// Unmatched counts images on disk with no catalog identifier.
	Unmatched int
	// Ignored counts rows without the configured extension.
	Ignored int
}

type Option func(*Reconciler)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

func WithExtension(ext string) Option {
	return func(r *Reconciler) {
		r.extension = strings.ToLower(ext)
	}
}

type Reconciler struct {
	logger    *zap.Logger
	root      string
	extension string
}

// New returns a Reconciler resolving inventory rows against root, the
// directory the inventory traversal was started from.
func New(root string, opts ...Option) *Reconciler {
	r := &Reconciler{
		logger:    zap.NewNop(),
		root:      root,
		extension: DefaultExtension,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) Reconcile(entries []inventory.Entry, catalog Catalog) Result {
	var res Result
	mapped := make(map[string]string)

	for _, e := range entries {
		abs := filepath.Join(r.root, e.RelativePath)

		if !strings.HasSuffix(strings.ToLower(abs), r.extension) {
			res.Ignored++
			continue
		}

		if _, exists := mapped[abs]; exists {
			res.Conflicts++
			r.logger.Error("duplicate file system image", zap.String("path", abs))
			continue
		}

		id, ok := catalog.Lookup(filepath.Base(abs))
		if !ok {
			res.Unmatched++
			r.logger.Debug("image has no catalog identifier", zap.String("path", abs))
			continue
		}

		mapped[abs] = id
	}

	res.Entries = make([]Entry, 0, len(mapped))
	for p, id := range mapped {
		res.Entries = append(res.Entries, Entry{Path: p, ID: id})
	}
	sort.Slice(res.Entries, func(i, j int) bool {
		return res.Entries[i].Path < res.Entries[j].Path
	})

	r.logger.Info("total number of images reconciled",
		zap.Int("reconciled", len(res.Entries)),
		zap.Int("conflicts", res.Conflicts),
		zap.Int("unmatched", res.Unmatched),
		zap.Int("ignored", res.Ignored),
	)

	return res
}
