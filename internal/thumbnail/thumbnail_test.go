package thumbnail

import (
	"bytes"
	"context"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbolytics/thumbnailer/internal/iiif"
)

func writeTIFF(t *testing.T, w, h int) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "source.tif")
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	require.NoError(t, imaging.Save(img, p))
	return p
}

func mustSize(t *testing.T, s string) iiif.Size {
	t.Helper()
	size, err := iiif.ParseSize(s)
	require.NoError(t, err)
	return size
}

func TestImaging_Transform(t *testing.T) {
	ctx := context.Background()

	t.Run("scales a tiff to jpeg", func(t *testing.T) {
		src := writeTIFF(t, 80, 60)

		d, err := New(WithQuality(90)).Transform(ctx, src, mustSize(t, "40,"))
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", d.ContentType)
		assert.Equal(t, 40, d.Width)
		assert.Equal(t, 30, d.Height)
		assert.Len(t, d.Digest, 64)
		assert.NotEmpty(t, d.PerceptualHash)
		assert.True(t, d.CapturedAt.IsZero())

		img, err := imaging.Decode(bytes.NewReader(d.Body))
		require.NoError(t, err)
		assert.Equal(t, 40, img.Bounds().Dx())
		assert.Equal(t, 30, img.Bounds().Dy())

		m := d.Metadata()
		assert.Equal(t, "40", m["width"])
		assert.Equal(t, "30", m["height"])
		assert.Equal(t, d.Digest, m["blake3"])
		assert.NotContains(t, m, "captured-at")
	})

	t.Run("deterministic output", func(t *testing.T) {
		src := writeTIFF(t, 32, 32)
		a, err := New().Transform(ctx, src, mustSize(t, "full"))
		require.NoError(t, err)
		b, err := New().Transform(ctx, src, mustSize(t, "full"))
		require.NoError(t, err)
		assert.Equal(t, a.Digest, b.Digest)
	})

	t.Run("rejected size", func(t *testing.T) {
		src := writeTIFF(t, 10, 10)
		_, err := New().Transform(ctx, src, mustSize(t, "pct:1"))
		assert.ErrorIs(t, err, iiif.ErrSizeRejected)
	})

	t.Run("unreadable source", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "missing.tif")
		_, err := New().Transform(ctx, missing, mustSize(t, "10,"))
		assert.ErrorIs(t, err, ErrSource)
		assert.Contains(t, err.Error(), missing)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := New().Transform(cctx, writeTIFF(t, 10, 10), mustSize(t, "full"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
