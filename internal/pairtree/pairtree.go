// Package pairtree maps identifiers onto the Pairtree directory layout,
// a hierarchy of two character segments that bounds the fan-out of any
// single directory. Keys produced here must stay byte-for-byte stable:
// previously published objects are located by recomputing them.
package pairtree

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
)

const (
	Root          = "pairtree_root"
	SegmentLength = 2
)

var (
	ErrEmptyID    = errors.New("pairtree: empty identifier")
	ErrBadEscape  = errors.New("pairtree: malformed escape sequence")
	hexChars      = "0123456789abcdef"
	escapedChars  = "\"*+,<=>?\\^|"
	substitutions = strings.NewReplacer("/", "=", ":", "+", ".", ",")
	restorations  = strings.NewReplacer("=", "/", "+", ":", ",", ".")
)

// Clean converts id into a string safe to use as a single path segment.
func Clean(id string) string {
	var b strings.Builder
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c < 0x21 || c > 0x7e || strings.IndexByte(escapedChars, c) >= 0 {
			b.WriteByte('^')
			b.WriteByte(hexChars[c>>4])
			b.WriteByte(hexChars[c&0x0f])
			continue
		}
		b.WriteByte(c)
	}
	return substitutions.Replace(b.String())
}

// Unclean reverses Clean.
func Unclean(s string) (string, error) {
	s = restorations.Replace(s)

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '^' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("%w in %q", ErrBadEscape, s)
		}
		v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
		if err != nil {
			return "", fmt.Errorf("%w in %q", ErrBadEscape, s)
		}
		b.WriteByte(byte(v))
		i += 2
	}
	return b.String(), nil
}

// Segments splits the cleaned identifier into the pairtree path segments.
func Segments(id string) []string {
	cleaned := Clean(id)
	segments := make([]string, 0, len(cleaned)/SegmentLength+1)
	for i := 0; i < len(cleaned); i += SegmentLength {
		end := i + SegmentLength
		if end > len(cleaned) {
			end = len(cleaned)
		}
		segments = append(segments, cleaned[i:end])
	}
	return segments
}

// PPath is the directory of the object holding id, excluding the
// encapsulating directory.
func PPath(id string) string {
	return path.Join(append([]string{Root}, Segments(id)...)...)
}

type Encoder struct {
	Prefix string
}

func New(prefix string) *Encoder {
	return &Encoder{Prefix: strings.Trim(prefix, "/")}
}

// Key returns the storage key of resource within the object for id:
//
//	[prefix/]pairtree_root/ab/cd/ef/abcdef/resource
func (e *Encoder) Key(id, resource string) (string, error) {
	if id == "" {
		return "", ErrEmptyID
	}

	parts := []string{PPath(id), Clean(id)}
	if e.Prefix != "" {
		parts = append([]string{e.Prefix}, parts...)
	}
	if r := strings.Trim(resource, "/"); r != "" {
		parts = append(parts, r)
	}
	return path.Join(parts...), nil
}

// Encode is Key without a prefix.
func Encode(id, resource string) (string, error) {
	return (&Encoder{}).Key(id, resource)
}

// Decode recovers the identifier from a key produced by an Encoder with the
// given prefix and resource.
func (e *Encoder) Decode(key, resource string) (string, error) {
	rest := strings.Trim(key, "/")
	if e.Prefix != "" {
		rest = strings.TrimPrefix(rest, e.Prefix+"/")
	}
	if r := strings.Trim(resource, "/"); r != "" {
		rest = strings.TrimSuffix(rest, "/"+r)
	}
	if !strings.HasPrefix(rest, Root+"/") {
		return "", fmt.Errorf("pairtree: %q is not under %s", key, Root)
	}

	cleaned := rest[strings.LastIndex(rest, "/")+1:]
	return Unclean(cleaned)
}
