package covercache

import "image"

// Kind distinguishes the three states a lookup can report.
type Kind int

const (
	// KindUnset means nothing is known about the id yet; a render should be requested.
	KindUnset Kind = iota
	// KindAbsent means the record is known to have no cover.
	KindAbsent
	// KindImage means a cover image is available.
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindImage:
		return "image"
	default:
		return "unset"
	}
}

// Pixmap is the presentation-ready form of a cover: pre-rendered terminal
// lines of equal display width.
type Pixmap struct {
	Width  int
	Height int
	Lines  []string
}

// Value is what the cache stores for an id. The zero Value is unset and is
// never stored.
type Value struct {
	kind   Kind
	raw    image.Image
	pixmap *Pixmap
}

// Absent returns the explicit "this record has no cover" marker.
func Absent() Value {
	return Value{kind: KindAbsent}
}

// FromImage wraps a decoded, already scaled image. The cache converts it to
// a Pixmap on first read.
func FromImage(img image.Image) Value {
	if img == nil {
		return Absent()
	}
	return Value{kind: KindImage, raw: img}
}

// FromPixmap wraps an image that is already in presentation form.
func FromPixmap(p Pixmap) Value {
	return Value{kind: KindImage, pixmap: &p}
}

// Kind reports which state v is in.
func (v Value) Kind() Kind { return v.kind }

// IsUnset reports whether v carries no information.
func (v Value) IsUnset() bool { return v.kind == KindUnset }

// IsAbsent reports whether v is the explicit absent marker.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Image returns the raw decoded image, or nil once v has been converted.
func (v Value) Image() image.Image { return v.raw }

// Pixmap returns the converted form when available.
func (v Value) Pixmap() (Pixmap, bool) {
	if v.pixmap == nil {
		return Pixmap{}, false
	}
	return *v.pixmap, true
}

// Bounds returns the pixel bounds of the raw image, or the cell size of the
// pixmap.
func (v Value) Bounds() image.Rectangle {
	switch {
	case v.raw != nil:
		return v.raw.Bounds()
	case v.pixmap != nil:
		return image.Rect(0, 0, v.pixmap.Width, v.pixmap.Height)
	default:
		return image.Rectangle{}
	}
}

func (v Value) needsConversion() bool {
	return v.kind == KindImage && v.pixmap == nil && v.raw != nil
}
