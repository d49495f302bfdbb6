package surface

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/bmp"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/tiff"

	// webp has no encoder; decode only.
	_ "golang.org/x/image/webp"
)

const jpegQuality = 92

var (
	regularFont = sync.OnceValues(func() (*text.FontSource, error) {
		return text.NewFontSource(goregular.TTF)
	})
	boldFont = sync.OnceValues(func() (*text.FontSource, error) {
		return text.NewFontSource(gobold.TTF)
	})
)

// GGBackend renders with the gogpu/gg software rasterizer.
type GGBackend struct{}

func NewGGBackend() *GGBackend { return &GGBackend{} }

func (*GGBackend) Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", errEmptySketch
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode sketch: %w", err)
	}
	return img, format, nil
}

func (*GGBackend) New(width, height int) Surface {
	return &ggSurface{dc: gg.NewContext(width, height)}
}

func (*GGBackend) Encode(s Surface, format string) ([]byte, string, error) {
	if gs, ok := s.(*ggSurface); ok && gs.err != nil {
		return nil, "", gs.err
	}
	return EncodeImage(s.Image(), format)
}

// EncodeImage writes img in format. webp and unknown formats are written as png.
func EncodeImage(img image.Image, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, nil)
	default:
		format = "png"
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), format, nil
}

type ggSurface struct {
	dc  *gg.Context
	err error
}

func (s *ggSurface) Size() (float64, float64) {
	return float64(s.dc.Width()), float64(s.dc.Height())
}

func (s *ggSurface) FillRect(x, y, w, h float64, p Paint) {
	s.dc.SetFillBrush(toBrush(p))
	s.dc.DrawRectangle(x, y, w, h)
	s.fill()
}

func (s *ggSurface) FillPolygon(pts []Point, p Paint) {
	if len(pts) < 3 {
		return
	}
	s.dc.SetFillBrush(toBrush(p))
	s.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		s.dc.LineTo(pt.X, pt.Y)
	}
	s.dc.ClosePath()
	s.fill()
}

func (s *ggSurface) FillCircle(cx, cy, r float64, p Paint) {
	s.dc.SetFillBrush(toBrush(p))
	s.dc.DrawCircle(cx, cy, r)
	s.fill()
}

func (s *ggSurface) DrawImage(img image.Image, x, y, w, h, alpha float64) {
	// gg treats a zero opacity as "unset" and draws opaque.
	if img == nil || alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}
	s.dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:             x,
		Y:             y,
		DstWidth:      w,
		DstHeight:     h,
		Interpolation: gg.InterpBilinear,
		Opacity:       alpha,
		BlendMode:     gg.BlendNormal,
	})
}

func (s *ggSurface) DrawText(str string, x, y float64, style TextStyle) {
	src := regularFont
	if style.Bold {
		src = boldFont
	}
	fs, err := src()
	if err != nil {
		s.setErr(fmt.Errorf("load font: %w", err))
		return
	}
	s.dc.SetFont(fs.Face(style.Size))
	s.dc.SetRGBA(unit(style.Color.R), unit(style.Color.G), unit(style.Color.B), unit(style.Color.A))
	s.dc.DrawStringAnchored(str, x, y, style.AnchorX, 0)
}

func (s *ggSurface) Image() image.Image {
	return s.dc.Image()
}

// Close releases the gg context.
func (s *ggSurface) Close() error {
	return s.dc.Close()
}

func (s *ggSurface) fill() {
	if err := s.dc.Fill(); err != nil {
		s.setErr(fmt.Errorf("fill: %w", err))
	}
}

func (s *ggSurface) setErr(err error) {
	if s.err == nil {
		s.err = err
	}
}

func toBrush(p Paint) gg.Brush {
	switch p := p.(type) {
	case Solid:
		return gg.Solid(toRGBA(p.Color))
	case LinearGradient:
		g := gg.NewLinearGradientBrush(p.X0, p.Y0, p.X1, p.Y1)
		for _, st := range p.Stops {
			g.AddColorStop(st.Offset, toRGBA(st.Color))
		}
		return g
	case RadialGradient:
		g := gg.NewRadialGradientBrush(p.CX, p.CY, p.R0, p.R1)
		for _, st := range p.Stops {
			g.AddColorStop(st.Offset, toRGBA(st.Color))
		}
		return g
	}
	return gg.Solid(gg.Black)
}

// gg.FromColor goes through color.Color.RGBA, which is premultiplied; gg colors are straight.
func toRGBA(c color.NRGBA) gg.RGBA {
	return gg.RGBA2(unit(c.R), unit(c.G), unit(c.B), unit(c.A))
}

func unit(v uint8) float64 { return float64(v) / 255 }

var _ Backend = (*GGBackend)(nil)
