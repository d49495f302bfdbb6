package composer

import "auto_sketch_enhancer/surface"

// Excerpt is the first ExcerptLength characters of description followed by "...". The
// marker is appended even when nothing was cut.
func Excerpt(description string) string {
	r := []rune(description)
	if len(r) > ExcerptLength {
		r = r[:ExcerptLength]
	}
	return string(r) + "..."
}

var (
	shadowColor = surface.RGBA(0, 0, 0, 0.5)
	stampColor  = surface.RGBA(255, 255, 255, 0.9)
)

// Stamp writes the right-aligned label and the left-aligned description excerpt along the
// bottom edge, each over a drop shadow.
func Stamp(s surface.Surface, description string) {
	w, h := s.Size()
	k := w / float64(DefaultSize)
	margin := 20 * k
	baseline := h - margin
	shadow := 2 * k

	label := surface.TextStyle{Size: 24 * k, Bold: true, AnchorX: 1}
	shadowText(s, Label, w-margin, baseline, shadow, label)

	excerpt := surface.TextStyle{Size: 16 * k, AnchorX: 0}
	shadowText(s, Excerpt(description), margin, baseline, shadow, excerpt)
}

func shadowText(s surface.Surface, text string, x, y, offset float64, style surface.TextStyle) {
	style.Color = shadowColor
	s.DrawText(text, x+offset, y+offset, style)
	style.Color = stampColor
	s.DrawText(text, x, y, style)
}
