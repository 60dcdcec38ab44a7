package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// EncodedImage is a PNG rendering of an image, ready to be embedded in a
// JSON response.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Encode renders img as a base64 PNG, optionally rescaled.
// A scale of 0 or 1 keeps the original size.
func Encode(img image.Image, scale float64) (*EncodedImage, error) {
	if scale > 0 && scale != 1.0 {
		w := int(float64(img.Bounds().Dx()) * scale)
		h := int(float64(img.Bounds().Dy()) * scale)
		if w < 1 || h < 1 {
			return nil, errors.Errorf("scale %.3f leaves nothing of a %dx%d image", scale, img.Bounds().Dx(), img.Bounds().Dy())
		}
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := WritePNG(&buf, img); err != nil {
		return nil, err
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// WritePNG encodes img to w as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return errors.Wrap(imaging.Encode(w, img, imaging.PNG), "failed to encode image")
}

// ClampRect limits r to the image bounds. The result may be empty when r lies
// completely outside.
func ClampRect(r image.Rectangle, bounds image.Rectangle) image.Rectangle {
	return r.Canon().Intersect(bounds)
}

// Crop extracts the region r from img. Boxes drawn close to the edge of a
// photo often poke out of it by a pixel or two, so r is clamped to the image
// first; a region with nothing left inside the image is an error.
func Crop(img image.Image, r image.Rectangle) (*image.NRGBA, error) {
	clamped := ClampRect(r, img.Bounds())
	if clamped.Empty() {
		return nil, errors.Errorf("crop region %v outside image bounds %v", r, img.Bounds())
	}
	return imaging.Crop(img, clamped), nil
}

// CropEncoded crops r out of img and returns it as a base64 PNG.
func CropEncoded(img image.Image, r image.Rectangle, scale float64) (*EncodedImage, error) {
	cropped, err := Crop(img, r)
	if err != nil {
		return nil, err
	}
	return Encode(cropped, scale)
}
