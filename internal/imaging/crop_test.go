package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// createPatternImage creates an image with different colors in each quadrant:
// red top-left, green top-right, blue bottom-left, white bottom-right.
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCrop(t *testing.T) {
	img := createPatternImage(100, 100)

	cropped, err := Crop(img, image.Rect(50, 0, 100, 50))
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	if cropped.Bounds().Dx() != 50 || cropped.Bounds().Dy() != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", cropped.Bounds().Dx(), cropped.Bounds().Dy())
	}

	r, g, b, _ := cropped.At(10, 10).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 0 {
		t.Errorf("cropped pixel: got (%d,%d,%d), want green", r>>8, g>>8, b>>8)
	}
}

func TestCrop_ClampsToBounds(t *testing.T) {
	img := createPatternImage(100, 100)

	cropped, err := Crop(img, image.Rect(-10, -10, 20, 30))
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if cropped.Bounds().Dx() != 20 || cropped.Bounds().Dy() != 30 {
		t.Errorf("dimensions: got %dx%d, want 20x30", cropped.Bounds().Dx(), cropped.Bounds().Dy())
	}
}

func TestCrop_OutsideImage(t *testing.T) {
	img := createPatternImage(100, 100)

	if _, err := Crop(img, image.Rect(150, 150, 200, 200)); err == nil {
		t.Error("Crop should fail for a region outside the image")
	}
	if _, err := Crop(img, image.Rect(10, 10, 10, 40)); err == nil {
		t.Error("Crop should fail for an empty region")
	}
}

func TestEncode(t *testing.T) {
	img := createInMemoryImage(40, 20, color.RGBA{0, 0, 0, 255})

	result, err := Encode(img, 1.0)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if result.Width != 40 || result.Height != 20 {
		t.Errorf("dimensions: got %dx%d, want 40x20", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	raw, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	if decoded.Bounds().Dx() != 40 {
		t.Errorf("decoded width: got %d, want 40", decoded.Bounds().Dx())
	}
}

func TestEncode_Scale(t *testing.T) {
	img := createInMemoryImage(100, 50, color.RGBA{255, 0, 0, 255})

	result, err := Encode(img, 0.5)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if result.Width != 50 || result.Height != 25 {
		t.Errorf("scaled dimensions: got %dx%d, want 50x25", result.Width, result.Height)
	}

	if _, err := Encode(img, 0.001); err == nil {
		t.Error("Encode should fail when the scaled image is empty")
	}
}

func TestCropEncoded(t *testing.T) {
	img := createPatternImage(100, 100)

	result, err := CropEncoded(img, image.Rect(0, 50, 50, 100), 2.0)
	if err != nil {
		t.Fatalf("CropEncoded failed: %v", err)
	}
	if result.Width != 100 || result.Height != 100 {
		t.Errorf("dimensions: got %dx%d, want 100x100", result.Width, result.Height)
	}
}
