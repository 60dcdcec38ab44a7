package toolkit

import (
	"image"

	"github.com/pkg/errors"

	"github.com/MissEmlizB/annotate-ml/internal/dataset"
	"github.com/MissEmlizB/annotate-ml/internal/imaging"
)

// BoxVisualiser draws each row's annotations over its photo.
type BoxVisualiser struct {
	Style imaging.OverlayStyle
}

// NewBoxVisualiser returns a Visualiser using style.
func NewBoxVisualiser(style imaging.OverlayStyle) *BoxVisualiser {
	return &BoxVisualiser{Style: style}
}

// DrawBoundingBoxes implements Visualiser. Labels get the same colour on
// every row.
func (v *BoxVisualiser) DrawBoundingBoxes(ds *dataset.Dataset) ([]image.Image, error) {
	overlayer, err := imaging.NewOverlayer(ds.Labels(), v.Style)
	if err != nil {
		return nil, errors.Wrap(err, "invalid overlay style")
	}

	out := make([]image.Image, len(ds.Rows))
	for i, row := range ds.Rows {
		if row.Image == nil {
			return nil, errors.Errorf("row %d (%s) has no image", i+1, row.Path)
		}
		out[i] = overlayer.Draw(row.Image, row.Boxes())
	}
	return out, nil
}
