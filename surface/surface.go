// Package surface defines the drawing capability the composer paints on and the backend that
// decodes sketches, allocates surfaces and encodes results.
package surface

import (
	"image"
	"image/color"
)

// Point is a surface coordinate in pixels.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Paint is a fill style: Solid, LinearGradient or RadialGradient.
type Paint interface {
	isPaint()
}

// Solid fills with a single non-premultiplied color.
type Solid struct {
	Color color.NRGBA
}

// Stop is a gradient color stop; Offset is in [0, 1].
type Stop struct {
	Offset float64
	Color  color.NRGBA
}

// LinearGradient interpolates stops from (X0, Y0) to (X1, Y1) and pads beyond the ends.
type LinearGradient struct {
	X0, Y0, X1, Y1 float64
	Stops          []Stop
}

// RadialGradient interpolates stops between radius R0 and R1 around (CX, CY).
type RadialGradient struct {
	CX, CY float64
	R0, R1 float64
	Stops  []Stop
}

func (Solid) isPaint()          {}
func (LinearGradient) isPaint() {}
func (RadialGradient) isPaint() {}

// RGBA is a convenience constructor for a straight-alpha color; a is in [0, 1].
func RGBA(r, g, b uint8, a float64) color.NRGBA {
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	return color.NRGBA{R: r, G: g, B: b, A: uint8(a*255 + 0.5)}
}

// Hex parses "#rrggbb" into an opaque color. Malformed input yields black.
func Hex(s string) color.NRGBA {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return color.NRGBA{A: 255}
	}
	var v [3]uint8
	for i := 0; i < 3; i++ {
		v[i] = hexByte(s[i*2])<<4 | hexByte(s[i*2+1])
	}
	return color.NRGBA{R: v[0], G: v[1], B: v[2], A: 255}
}

func hexByte(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

// TextStyle controls DrawText. AnchorX is 0 for left-aligned text starting at x and 1 for
// right-aligned text ending at x; y is the baseline.
type TextStyle struct {
	Size    float64
	Bold    bool
	Color   color.NRGBA
	AnchorX float64
}

// Surface is a mutable pixel canvas of fixed size.
type Surface interface {
	Size() (w, h float64)
	FillRect(x, y, w, h float64, p Paint)
	FillPolygon(pts []Point, p Paint)
	FillCircle(cx, cy, r float64, p Paint)
	// DrawImage draws img scaled into the rectangle with a global alpha in [0, 1].
	DrawImage(img image.Image, x, y, w, h, alpha float64)
	DrawText(s string, x, y float64, style TextStyle)
	// Image returns the current pixels.
	Image() image.Image
}

// Backend decodes sketches, allocates surfaces and encodes them.
type Backend interface {
	Decode(data []byte) (image.Image, string, error)
	New(width, height int) Surface
	// Encode writes s in format and returns the bytes and the format actually used.
	Encode(s Surface, format string) ([]byte, string, error)
}
