package imaging

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var labelFont *truetype.Font

func init() {
	var err error
	labelFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Box is a labelled region to draw, in the image's pixel coordinates.
type Box struct {
	Rect  image.Rectangle
	Label string
}

// OverlayStyle controls how ground-truth boxes are rendered.
type OverlayStyle struct {
	// LineWidth is the stroke width of box outlines in pixels.
	LineWidth float64

	// FontSize is the label text size in points.
	FontSize float64

	// Color forces a single "#RRGGBB" colour for every box. Empty picks a
	// colour per label.
	Color string
}

// DefaultOverlayStyle returns the style used by the visualise command.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{LineWidth: 3, FontSize: 14}
}

// Overlayer draws labelled bounding boxes on top of images.
type Overlayer struct {
	style   OverlayStyle
	palette *Palette
	face    font.Face
}

// NewOverlayer prepares an Overlayer whose palette covers labels.
func NewOverlayer(labels []string, style OverlayStyle) (*Overlayer, error) {
	if style.LineWidth <= 0 {
		return nil, errors.Errorf("line width must be positive, got %v", style.LineWidth)
	}
	if style.FontSize <= 0 {
		return nil, errors.Errorf("font size must be positive, got %v", style.FontSize)
	}
	palette, err := NewPalette(labels, style.Color)
	if err != nil {
		return nil, err
	}
	return &Overlayer{
		style:   style,
		palette: palette,
		face:    truetype.NewFace(labelFont, &truetype.Options{Size: style.FontSize}),
	}, nil
}

// Draw returns a copy of img with every box outlined and labelled. The source
// image is left untouched.
//
// Box coordinates are relative to img.Bounds().Min. Labels sit on a filled tab
// just above the box, or just inside it when the box touches the top edge.
func (o *Overlayer) Draw(img image.Image, boxes []Box) image.Image {
	origin := img.Bounds().Min
	dc := gg.NewContextForImage(imaging.Clone(img))
	dc.SetFontFace(o.face)

	for _, b := range boxes {
		r := b.Rect.Canon().Sub(origin)
		c := o.palette.Color(b.Label)

		dc.SetColor(c)
		dc.SetLineWidth(o.style.LineWidth)
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Stroke()

		if b.Label == "" {
			continue
		}

		pad := o.style.LineWidth
		tw, th := dc.MeasureString(b.Label)
		tabH := th + 2*pad
		x := float64(r.Min.X) - o.style.LineWidth/2
		y := float64(r.Min.Y) - tabH
		if y < 0 {
			y = float64(r.Min.Y)
		}

		dc.SetColor(c)
		dc.DrawRectangle(x, y, tw+2*pad, tabH)
		dc.Fill()

		dc.SetColor(TextColor(c))
		dc.DrawStringAnchored(b.Label, x+pad, y+pad, 0, 1)
	}

	return dc.Image()
}
