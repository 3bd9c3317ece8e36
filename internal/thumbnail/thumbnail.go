package thumbnail

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"os"
	"strconv"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/turbolytics/thumbnailer/internal/iiif"
)

const DefaultQuality = 85

var ErrSource = errors.New("unable to read source image")

// Derivative is an encoded thumbnail and what is known about it.
type Derivative struct {
	Body        []byte
	ContentType string
	Width       int
	Height      int

	// PerceptualHash is a difference hash of the scaled image.
	PerceptualHash string
	// Digest is the hex BLAKE3 digest of Body.
	Digest string
	// CapturedAt is the EXIF capture time of the source, if it has one.
	CapturedAt time.Time
}

// Metadata is stored alongside the published object.
func (d *Derivative) Metadata() map[string]string {
	m := map[string]string{
		"width":  strconv.Itoa(d.Width),
		"height": strconv.Itoa(d.Height),
		"blake3": d.Digest,
	}
	if d.PerceptualHash != "" {
		m["dhash"] = d.PerceptualHash
	}
	if !d.CapturedAt.IsZero() {
		m["captured-at"] = d.CapturedAt.UTC().Format(time.RFC3339)
	}
	return m
}

type Transformer interface {
	Transform(ctx context.Context, path string, size iiif.Size) (*Derivative, error)
}

type Option func(*Imaging)

func WithLogger(logger *zap.Logger) Option {
	return func(i *Imaging) {
		i.logger = logger
	}
}

func WithQuality(quality int) Option {
	return func(i *Imaging) {
		i.quality = quality
	}
}

// Imaging decodes sources of any format supported by the imaging package,
// TIFF included, and produces JPEG derivatives.
type Imaging struct {
	logger  *zap.Logger
	quality int
}

func New(opts ...Option) *Imaging {
	i := &Imaging{
		logger:  zap.NewNop(),
		quality: DefaultQuality,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Imaging) Transform(ctx context.Context, path string, size iiif.Size) (*Derivative, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrSource, path, err)
	}

	bounds := src.Bounds()
	w, h, err := size.Dimensions(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	var dst image.Image = src
	if w != bounds.Dx() || h != bounds.Dy() {
		dst = imaging.Resize(src, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.JPEG, imaging.JPEGQuality(i.quality)); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", path, err)
	}

	digest := blake3.Sum256(buf.Bytes())
	d := &Derivative{
		Body:        buf.Bytes(),
		ContentType: iiif.ContentTypeJPEG,
		Width:       w,
		Height:      h,
		Digest:      hex.EncodeToString(digest[:]),
		CapturedAt:  i.capturedAt(path),
	}

	if hash, err := goimagehash.DifferenceHash(dst); err == nil {
		d.PerceptualHash = hash.ToString()
	} else {
		i.logger.Debug("unable to hash derivative", zap.String("path", path), zap.Error(err))
	}

	return d, nil
}

// capturedAt reads the EXIF capture time of the source. Most archival
// TIFFs carry none; a zero time is returned then.
func (i *Imaging) capturedAt(path string) time.Time {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}
	}
	t, err := x.DateTime()
	if err != nil {
		return time.Time{}
	}
	return t
}
