// Package elements holds the procedural motifs painted over a composition. Positions are
// fractions of the surface size; pixel constants are given at ReferenceSize and scaled.
package elements

import (
	"math/rand/v2"

	"auto_sketch_enhancer/surface"
)

// ReferenceSize is the surface width the pixel constants below were tuned for.
const ReferenceSize = 1024.0

// Element paints one motif onto s. rng is only consulted by elements with random variation.
type Element interface {
	Paint(s surface.Surface, rng *rand.Rand)
}

// Func adapts a function to Element.
type Func func(s surface.Surface, rng *rand.Rand)

func (f Func) Paint(s surface.Surface, rng *rand.Rand) { f(s, rng) }

var (
	Mountains  Element = Func(paintMountains)
	Trees      Element = Func(paintTrees)
	Sun        Element = Func(paintSun)
	Clouds     Element = Func(paintClouds)
	House      Element = Func(paintHouse)
	Atmosphere Element = Func(paintAtmosphere)
)

func scale(s surface.Surface) (w, h, k float64) {
	w, h = s.Size()
	return w, h, w / ReferenceSize
}

var (
	mountainColor = surface.Hex("#6b7b8c")
	snowColor     = surface.Hex("#ffffff")
	shadeColor    = surface.RGBA(0, 0, 0, 0.2)
)

func paintMountains(s surface.Surface, _ *rand.Rand) {
	w, h, _ := scale(s)

	ridge := []surface.Point{
		surface.Pt(0, h*0.75),
		surface.Pt(w*0.3, h*0.3),
		surface.Pt(w*0.5, h*0.45),
		surface.Pt(w*0.7, h*0.25),
		surface.Pt(w*0.85, h*0.4),
		surface.Pt(w, h*0.7),
	}
	silhouette := append(ridge, surface.Pt(w, h), surface.Pt(0, h))
	s.FillPolygon(silhouette, surface.Solid{Color: mountainColor})

	// snow cap on the first peak
	s.FillPolygon([]surface.Point{
		surface.Pt(w*0.3, h*0.3),
		surface.Pt(w*0.25, h*0.38),
		surface.Pt(w*0.35, h*0.38),
	}, surface.Solid{Color: snowColor})

	// shaded face between the first two peaks
	s.FillPolygon([]surface.Point{
		surface.Pt(w*0.3, h*0.3),
		surface.Pt(w*0.5, h*0.45),
		surface.Pt(w*0.5, h*0.75),
		surface.Pt(w*0.35, h*0.75),
	}, surface.Solid{Color: shadeColor})
}

const (
	treeCount     = 5
	treeMinHeight = 60.0
	treeMaxHeight = 100.0
)

var (
	trunkColor  = surface.Hex("#8b4513")
	canopyColor = surface.Hex("#228b22")
)

// TreeXs are the horizontal positions of the trees as fractions of width.
var TreeXs = [treeCount]float64{0.1, 0.3, 0.5, 0.7, 0.9}

func paintTrees(s surface.Surface, rng *rand.Rand) {
	w, h, k := scale(s)
	ground := h * 0.8
	for _, fx := range TreeXs {
		height := TreeHeight(rng) * k
		x := w * fx
		trunkH := height * 0.3
		trunkW := 10 * k
		s.FillRect(x-trunkW/2, ground-trunkH, trunkW, trunkH, surface.Solid{Color: trunkColor})
		s.FillPolygon([]surface.Point{
			surface.Pt(x, ground-height),
			surface.Pt(x-25*k, ground-trunkH),
			surface.Pt(x+25*k, ground-trunkH),
		}, surface.Solid{Color: canopyColor})
	}
}

// TreeHeight draws a tree height in [60, 100] reference pixels.
func TreeHeight(rng *rand.Rand) float64 {
	if rng == nil {
		return treeMinHeight + rand.Float64()*(treeMaxHeight-treeMinHeight)
	}
	return treeMinHeight + rng.Float64()*(treeMaxHeight-treeMinHeight)
}

const sunRadius = 40.0

var sunColor = surface.Hex("#ffd700")

func paintSun(s surface.Surface, _ *rand.Rand) {
	w, h, k := scale(s)
	cx, cy, r := w*0.85, h*0.15, sunRadius*k

	glow := surface.RadialGradient{
		CX: cx, CY: cy, R0: 0, R1: r * 2,
		Stops: []surface.Stop{
			{Offset: 0, Color: surface.RGBA(255, 255, 0, 1)},
			{Offset: 0.5, Color: surface.RGBA(255, 255, 0, 0.3)},
			{Offset: 1, Color: surface.RGBA(255, 255, 0, 0)},
		},
	}
	s.FillCircle(cx, cy, r*2, glow)
	s.FillCircle(cx, cy, r, surface.Solid{Color: sunColor})
}

var cloudColor = surface.RGBA(255, 255, 255, 0.8)

func paintClouds(s surface.Surface, _ *rand.Rand) {
	w, h, k := scale(s)
	cloud(s, w*0.2, h*0.15, 1*k)
	cloud(s, w*0.6, h*0.1, 0.8*k)
}

func cloud(s surface.Surface, x, y, size float64) {
	paint := surface.Solid{Color: cloudColor}
	s.FillCircle(x, y, 30*size, paint)
	s.FillCircle(x+25*size, y, 25*size, paint)
	s.FillCircle(x+45*size, y, 20*size, paint)
}

var (
	wallColor   = surface.Hex("#deb887")
	roofColor   = surface.Hex("#8b0000")
	doorColor   = surface.Hex("#654321")
	windowColor = surface.Hex("#87ceeb")
)

func paintHouse(s surface.Surface, _ *rand.Rand) {
	w, h, k := scale(s)
	bodyW, bodyH := 160*k, 120*k
	x := w*0.5 - bodyW/2
	y := h*0.8 - bodyH
	overhang := 10 * k

	s.FillRect(x, y, bodyW, bodyH, surface.Solid{Color: wallColor})
	s.FillPolygon([]surface.Point{
		surface.Pt(x-overhang, y),
		surface.Pt(x+bodyW/2, y-70*k),
		surface.Pt(x+bodyW+overhang, y),
	}, surface.Solid{Color: roofColor})

	doorW, doorH := 40*k, 70*k
	s.FillRect(x+(bodyW-doorW)/2, y+bodyH-doorH, doorW, doorH, surface.Solid{Color: doorColor})

	win := 30 * k
	s.FillRect(x+25*k, y+25*k, win, win, surface.Solid{Color: windowColor})
	s.FillRect(x+bodyW-25*k-win, y+25*k, win, win, surface.Solid{Color: windowColor})
}

func paintAtmosphere(s surface.Surface, _ *rand.Rand) {
	w, h, _ := scale(s)
	fog := surface.LinearGradient{
		X0: 0, Y0: h / 2, X1: 0, Y1: h,
		Stops: []surface.Stop{
			{Offset: 0, Color: surface.RGBA(255, 255, 255, 0)},
			{Offset: 1, Color: surface.RGBA(255, 255, 255, 0.3)},
		},
	}
	s.FillRect(0, 0, w, h, fog)
}
