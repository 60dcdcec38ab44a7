package dataset

import (
	"encoding/json"
	"image"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Coordinates locate a bounding box in image pixels. X and Y are the centre
// of the box, not its top-left corner.
type Coordinates struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Annotation is one labelled bounding box.
type Annotation struct {
	Label       string      `json:"label"`
	Coordinates Coordinates `json:"coordinates"`
}

// Rect converts the centre based coordinates to a pixel rectangle.
func (a Annotation) Rect() image.Rectangle {
	c := a.Coordinates
	x0 := c.X - c.Width/2
	y0 := c.Y - c.Height/2
	return image.Rect(
		int(math.Round(x0)),
		int(math.Round(y0)),
		int(math.Round(x0+c.Width)),
		int(math.Round(y0+c.Height)),
	).Canon()
}

// ParseAnnotations decodes an annotations cell. An empty cell has no
// annotations.
func ParseAnnotations(raw string) ([]Annotation, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var out []Annotation
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, errors.Wrap(err, "invalid annotations")
	}
	return out, nil
}

// Size is a width and height in pixels.
type Size struct {
	W float64
	H float64
}

// ToCentre converts a box drawn with its top-left corner on a scaled preview
// of a photo into centre based coordinates on the real photo.
//
// The preview is letterboxed: the real image is centred inside it, so the
// centring offset is removed before scaling. A zero scaled size means the box
// was drawn at full resolution.
func ToCentre(topLeft Coordinates, scaled, real Size) Coordinates {
	sw, sh := 1.0, 1.0
	cw, ch := 0.0, 0.0
	if scaled.W > 0 && scaled.H > 0 {
		sw = real.W / scaled.W
		sh = real.H / scaled.H
		cw = (real.W - scaled.W) / 2
		ch = (real.H - scaled.H) / 2
	}

	w := topLeft.Width
	h := topLeft.Height
	return Coordinates{
		X:      ((topLeft.X + w/2) - cw) * sw,
		Y:      ((topLeft.Y + h/2) - ch) * sh,
		Width:  w * sw,
		Height: h * sh,
	}
}
