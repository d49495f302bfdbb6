package surface

import (
	"image"
	"image/color"
)

// Op is one recorded paint call.
type Op struct {
	Kind   string // rect, polygon, circle, image, text
	Paint  Paint
	Points []Point
	Rect   [4]float64 // x, y, w, h for rect and image; cx, cy, r for circle
	Alpha  float64
	Text   string
	Style  TextStyle
}

// Recorder is a Surface that records paint calls instead of rasterizing them. Its Image is a
// blank canvas of the recorded size.
type Recorder struct {
	W, H float64
	Ops  []Op
}

func NewRecorder(w, h int) *Recorder {
	return &Recorder{W: float64(w), H: float64(h)}
}

func (r *Recorder) Size() (float64, float64) { return r.W, r.H }

func (r *Recorder) FillRect(x, y, w, h float64, p Paint) {
	r.Ops = append(r.Ops, Op{Kind: "rect", Paint: p, Rect: [4]float64{x, y, w, h}})
}

func (r *Recorder) FillPolygon(pts []Point, p Paint) {
	cp := append([]Point(nil), pts...)
	r.Ops = append(r.Ops, Op{Kind: "polygon", Paint: p, Points: cp})
}

func (r *Recorder) FillCircle(cx, cy, rad float64, p Paint) {
	r.Ops = append(r.Ops, Op{Kind: "circle", Paint: p, Rect: [4]float64{cx, cy, rad, 0}})
}

func (r *Recorder) DrawImage(_ image.Image, x, y, w, h, alpha float64) {
	r.Ops = append(r.Ops, Op{Kind: "image", Rect: [4]float64{x, y, w, h}, Alpha: alpha})
}

func (r *Recorder) DrawText(s string, x, y float64, style TextStyle) {
	r.Ops = append(r.Ops, Op{Kind: "text", Text: s, Rect: [4]float64{x, y, 0, 0}, Style: style})
}

func (r *Recorder) Image() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, int(r.W), int(r.H)))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

// Kinds lists the op kinds in order.
func (r *Recorder) Kinds() []string {
	out := make([]string, len(r.Ops))
	for i, op := range r.Ops {
		out[i] = op.Kind
	}
	return out
}

// RecordingBackend decodes and encodes like GGBackend but hands out Recorders.
type RecordingBackend struct {
	GGBackend
	Surfaces []*Recorder
}

func (b *RecordingBackend) New(width, height int) Surface {
	r := NewRecorder(width, height)
	b.Surfaces = append(b.Surfaces, r)
	return r
}

func (b *RecordingBackend) Encode(s Surface, format string) ([]byte, string, error) {
	return EncodeImage(s.Image(), format)
}

// Last returns the most recently allocated surface, or nil.
func (b *RecordingBackend) Last() *Recorder {
	if len(b.Surfaces) == 0 {
		return nil
	}
	return b.Surfaces[len(b.Surfaces)-1]
}

// IsSolid reports whether p is a Solid of exactly c.
func IsSolid(p Paint, c color.NRGBA) bool {
	s, ok := p.(Solid)
	return ok && s.Color == c
}
