package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/transform"
	"gonum.org/v1/gonum/stat"
)

// FeatureGrid is the side length of the thumbnail a region is reduced to.
const FeatureGrid = 8

// FeatureSize is the length of the vector returned by Features.
const FeatureSize = 2*FeatureGrid*FeatureGrid + 4

// Features describes the region r of img as a fixed-length vector:
//
//  1. FeatureGrid² grayscale intensities of the region thumbnail (0-1)
//  2. FeatureGrid² Sobel edge magnitudes of the region thumbnail (0-1)
//  3. mean and standard deviation of the intensities
//  4. log aspect ratio (width/height) of the region
//  5. region area as a fraction of the image area
//
// The region is clamped to the image; a region entirely outside it is an error.
func Features(img image.Image, r image.Rectangle) ([]float64, error) {
	region, err := Crop(img, r)
	if err != nil {
		return nil, err
	}

	gray := effect.Grayscale(region)
	edges := effect.Sobel(gray)

	thumb := transform.Resize(gray, FeatureGrid, FeatureGrid, transform.Linear)
	edgeThumb := transform.Resize(edges, FeatureGrid, FeatureGrid, transform.Box)

	intensities := channel(thumb)
	magnitudes := channel(edgeThumb)

	bounds := region.Bounds()
	imgBounds := img.Bounds()
	aspect := math.Log(float64(bounds.Dx()) / float64(bounds.Dy()))
	area := float64(bounds.Dx()*bounds.Dy()) / float64(imgBounds.Dx()*imgBounds.Dy())

	out := make([]float64, 0, FeatureSize)
	out = append(out, intensities...)
	out = append(out, magnitudes...)
	out = append(out,
		stat.Mean(intensities, nil),
		stat.StdDev(intensities, nil),
		aspect,
		area,
	)
	return out, nil
}

// channel returns the red channel of an RGBA thumbnail scaled to 0-1. The
// thumbnails are grayscale, so any channel would do.
func channel(img *image.RGBA) []float64 {
	b := img.Bounds()
	values := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			values = append(values, float64(img.RGBAAt(x, y).R)/255.0)
		}
	}
	return values
}
