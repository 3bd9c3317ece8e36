package iiif

import "path"

const (
	RegionFull      = "full"
	RotationNone    = "0"
	QualityDefault  = "default"
	FormatJPG       = "jpg"
	ContentTypeJPEG = "image/jpeg"
)

// Request describes the derivative produced for an image identifier.
type Request struct {
	ID   string
	Size Size
}

func NewRequest(id string, size Size) Request {
	return Request{ID: id, Size: size}
}

// Path is the request path relative to the image identifier, e.g.
// full/200,/0/default.jpg
func (r Request) Path() string {
	return path.Join(RegionFull, r.Size.String(), RotationNone, QualityDefault+"."+FormatJPG)
}
