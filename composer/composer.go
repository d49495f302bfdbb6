// Package composer layers a background, the sketch guide, keyword-selected elements, an
// atmosphere wash and a provenance stamp into the final image.
package composer

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"

	"auto_sketch_enhancer/elements"
	"auto_sketch_enhancer/stage"
	"auto_sketch_enhancer/surface"
)

const (
	DefaultSize = 1024
	// GuideAlpha is the opacity of the sketch drawn under the elements.
	GuideAlpha = 0.3
	// ExcerptLength is how many characters of the description the stamp shows.
	ExcerptLength = 60
	Label         = "Sketch Enhancer"
)

// Composer is safe for concurrent use: every Compose allocates its own surface and rng.
type Composer struct {
	backend  surface.Backend
	size     int
	seed     *uint64
	observer stage.Observer
}

type Option func(*Composer)

// WithSize sets the square output size in pixels.
func WithSize(px int) Option {
	return func(c *Composer) {
		if px > 0 {
			c.size = px
		}
	}
}

// WithSeed pins the random source used for tree heights. Each Compose starts from the same
// seed, so repeated compositions are pixel-identical.
func WithSeed(seed uint64) Option {
	return func(c *Composer) { c.seed = &seed }
}

func WithObserver(o stage.Observer) Option {
	return func(c *Composer) { c.observer = stage.OrNop(o) }
}

func New(backend surface.Backend, opts ...Option) (*Composer, error) {
	if backend == nil {
		return nil, errors.New("surface backend is required")
	}
	c := &Composer{backend: backend, size: DefaultSize, observer: stage.Nop}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Size is the output edge length in pixels.
func (c *Composer) Size() int { return c.size }

// Compose paints description over sketch and returns the encoded result in the sketch's
// format. A sketch that does not decode is returned unchanged with a nil error.
func (c *Composer) Compose(sketch surface.Sketch, description string) (surface.Sketch, error) {
	img, format, err := c.backend.Decode(sketch.Data)
	if err != nil {
		c.emit("sketch did not decode, returning it unchanged", err)
		return sketch, nil
	}

	s := c.backend.New(c.size, c.size)
	if cl, ok := s.(io.Closer); ok {
		defer cl.Close()
	}
	w, h := s.Size()
	plan := PlanFor(description)
	rng := c.rng()

	bg := plan.Background
	c.emit("background "+bg.Name, nil)
	s.FillRect(0, 0, w, h, surface.LinearGradient{
		X0: 0, Y0: 0, X1: 0, Y1: h,
		Stops: []surface.Stop{{Offset: 0, Color: bg.Top}, {Offset: 1, Color: bg.Bottom}},
	})

	s.DrawImage(img, 0, 0, w, h, GuideAlpha)

	for _, r := range plan.Rules {
		c.emit("paint "+r.Name, nil)
		r.Element.Paint(s, rng)
	}
	elements.Atmosphere.Paint(s, rng)

	Stamp(s, description)

	data, outFormat, err := c.backend.Encode(s, format)
	if err != nil {
		return surface.Sketch{}, fmt.Errorf("encode composition: %w", err)
	}
	c.emit(fmt.Sprintf("encoded %s, %d bytes", outFormat, len(data)), nil)
	return surface.Sketch{Data: data, Format: outFormat}, nil
}

func (c *Composer) rng() *rand.Rand {
	if c.seed != nil {
		return rand.New(rand.NewPCG(*c.seed, *c.seed))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (c *Composer) emit(msg string, err error) {
	c.observer.OnStage(stage.Event{Stage: stage.Composing, Component: "composer", Message: msg, Err: err})
}
