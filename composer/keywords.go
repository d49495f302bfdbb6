package composer

import (
	"image/color"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"auto_sketch_enhancer/elements"
	"auto_sketch_enhancer/surface"
)

// Background is one row of the sky table. Rows are tried in order; the first whose keywords
// match wins.
type Background struct {
	Name     string
	Keywords []string
	Top      color.NRGBA
	Bottom   color.NRGBA
}

// Rule binds a keyword group to an element. Every matching rule paints, in table order.
type Rule struct {
	Name     string
	Keywords []string
	Element  elements.Element
}

var Backgrounds = []Background{
	{Name: "mountain", Keywords: []string{"mountain", "montaña"}, Top: surface.Hex("#87ceeb"), Bottom: surface.Hex("#f5f5dc")},
	{Name: "sunset", Keywords: []string{"sunset", "atardecer"}, Top: surface.Hex("#ff7e5f"), Bottom: surface.Hex("#feb47b")},
	{Name: "ocean", Keywords: []string{"ocean", "sea", "océano", "mar"}, Top: surface.Hex("#0077be"), Bottom: surface.Hex("#40e0d0")},
}

// DefaultBackground is used when no row of Backgrounds matches.
var DefaultBackground = Background{Name: "sky", Top: surface.Hex("#b0e0e6"), Bottom: surface.Hex("#f0f8ff")}

// Rules is ordered back to front: large background motifs first, foreground structures last.
var Rules = []Rule{
	{Name: "mountains", Keywords: []string{"mountain", "montaña"}, Element: elements.Mountains},
	{Name: "trees", Keywords: []string{"tree", "árbol"}, Element: elements.Trees},
	{Name: "sun", Keywords: []string{"sun", "sol"}, Element: elements.Sun},
	{Name: "clouds", Keywords: []string{"cloud", "nube"}, Element: elements.Clouds},
	{Name: "house", Keywords: []string{"house", "casa"}, Element: elements.House},
}

// Plan is the dispatch outcome for one description.
type Plan struct {
	Background Background
	Rules      []Rule
}

// Names lists the matched rule names in paint order.
func (p Plan) Names() []string {
	out := make([]string, len(p.Rules))
	for i, r := range p.Rules {
		out[i] = r.Name
	}
	return out
}

// PlanFor evaluates the background and element tables once against description.
func PlanFor(description string) Plan {
	text := fold(description)
	plan := Plan{Background: DefaultBackground}
	for _, bg := range Backgrounds {
		if containsAny(text, bg.Keywords) {
			plan.Background = bg
			break
		}
	}
	for _, r := range Rules {
		if containsAny(text, r.Keywords) {
			plan.Rules = append(plan.Rules, r)
		}
	}
	return plan
}

func containsAny(folded string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(folded, fold(kw)) {
			return true
		}
	}
	return false
}

// fold normalizes to NFC and applies Unicode case folding, so "ÁRBOL" matches "árbol"
// whether the accent arrives precomposed or combining. Casers are stateful; one per call.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}
