package iiif

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidSize is returned for size strings that are not IIIF size syntax.
	ErrInvalidSize = errors.New("invalid IIIF size")
	// ErrSizeRejected is returned when a valid size cannot be applied to an image.
	ErrSizeRejected = errors.New("size rejected")
)

type SizeKind int

const (
	SizeFull SizeKind = iota
	SizeMax
	SizeWidth
	SizeHeight
	SizePercent
	SizeExact
	SizeBestFit
)

// Size is a parsed IIIF Image API size parameter, e.g. "200," or "!150,150".
type Size struct {
	Kind    SizeKind
	Width   int
	Height  int
	Percent float64
}

func ParseSize(s string) (Size, error) {
	switch {
	case s == "full":
		return Size{Kind: SizeFull}, nil
	case s == "max":
		return Size{Kind: SizeMax}, nil
	case strings.HasPrefix(s, "pct:"):
		pct, err := strconv.ParseFloat(strings.TrimPrefix(s, "pct:"), 64)
		if err != nil || pct <= 0 || math.IsInf(pct, 0) || math.IsNaN(pct) {
			return Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
		}
		return Size{Kind: SizePercent, Percent: pct}, nil
	}

	bestFit := strings.HasPrefix(s, "!")
	w, h, ok := strings.Cut(strings.TrimPrefix(s, "!"), ",")
	if !ok {
		return Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	width, err := parseDimension(w)
	if err != nil {
		return Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	height, err := parseDimension(h)
	if err != nil {
		return Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	switch {
	case bestFit && width > 0 && height > 0:
		return Size{Kind: SizeBestFit, Width: width, Height: height}, nil
	case bestFit:
		return Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	case width > 0 && height > 0:
		return Size{Kind: SizeExact, Width: width, Height: height}, nil
	case width > 0:
		return Size{Kind: SizeWidth, Width: width}, nil
	case height > 0:
		return Size{Kind: SizeHeight, Height: height}, nil
	}
	return Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
}

// parseDimension returns 0 for an empty dimension.
func parseDimension(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || s[0] == '+' {
		return 0, ErrInvalidSize
	}
	return n, nil
}

// String returns the canonical form used in request paths.
func (s Size) String() string {
	switch s.Kind {
	case SizeMax:
		return "max"
	case SizeWidth:
		return strconv.Itoa(s.Width) + ","
	case SizeHeight:
		return "," + strconv.Itoa(s.Height)
	case SizePercent:
		return "pct:" + strconv.FormatFloat(s.Percent, 'f', -1, 64)
	case SizeExact:
		return strconv.Itoa(s.Width) + "," + strconv.Itoa(s.Height)
	case SizeBestFit:
		return "!" + strconv.Itoa(s.Width) + "," + strconv.Itoa(s.Height)
	}
	return "full"
}

// Dimensions returns the pixel dimensions of an image of srcW x srcH
// scaled to s.
func (s Size) Dimensions(srcW, srcH int) (int, int, error) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0, fmt.Errorf("%w: source is %dx%d", ErrSizeRejected, srcW, srcH)
	}

	var w, h int
	switch s.Kind {
	case SizeFull, SizeMax:
		w, h = srcW, srcH
	case SizeWidth:
		w = s.Width
		h = scale(srcH, float64(s.Width)/float64(srcW))
	case SizeHeight:
		h = s.Height
		w = scale(srcW, float64(s.Height)/float64(srcH))
	case SizePercent:
		w = scale(srcW, s.Percent/100)
		h = scale(srcH, s.Percent/100)
	case SizeExact:
		w, h = s.Width, s.Height
	case SizeBestFit:
		ratio := math.Min(float64(s.Width)/float64(srcW), float64(s.Height)/float64(srcH))
		w = scale(srcW, ratio)
		h = scale(srcH, ratio)
	}

	if w < 1 || h < 1 {
		return 0, 0, fmt.Errorf("%w: %s of %dx%d is empty", ErrSizeRejected, s, srcW, srcH)
	}
	return w, h, nil
}

func scale(n int, ratio float64) int {
	return int(math.Round(float64(n) * ratio))
}
