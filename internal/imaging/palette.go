package imaging

import (
	"image/color"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// goldenAngle spreads consecutive hues as far apart as possible.
const goldenAngle = 137.50776405

// Palette assigns every label a stable, distinguishable box colour.
//
// Colours depend only on the label's position in the sorted label set, so the
// same dataset always renders the same way.
type Palette struct {
	fixed  *colorful.Color
	labels map[string]int
}

// NewPalette builds a palette for labels. If hex is non-empty ("#RRGGBB"),
// every label is drawn in that colour instead.
func NewPalette(labels []string, hex string) (*Palette, error) {
	p := &Palette{labels: make(map[string]int, len(labels))}

	if hex != "" {
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid box colour %q", hex)
		}
		p.fixed = &c
	}

	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)
	for _, l := range sorted {
		if _, ok := p.labels[l]; !ok {
			p.labels[l] = len(p.labels)
		}
	}
	return p, nil
}

// Color returns the box colour for label. Labels unknown to the palette are
// appended to it.
func (p *Palette) Color(label string) colorful.Color {
	if p.fixed != nil {
		return *p.fixed
	}
	i, ok := p.labels[label]
	if !ok {
		i = len(p.labels)
		p.labels[label] = i
	}
	return LabelColor(i)
}

// LabelColor returns the i-th colour of the palette sequence.
func LabelColor(i int) colorful.Color {
	h := math.Mod(float64(i)*goldenAngle, 360)
	return colorful.Hsv(h, 0.85, 0.95).Clamped()
}

// TextColor picks black or white, whichever reads better on bg.
func TextColor(bg colorful.Color) color.Color {
	l, _, _ := bg.Lab()
	if l > 0.6 {
		return color.Black
	}
	return color.White
}
