package imaging

import (
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Info contains metadata about a decoded image file.
type Info struct {
	// Width is the image width in pixels after EXIF orientation is applied.
	Width int `json:"width"`

	// Height is the image height in pixels after EXIF orientation is applied.
	Height int `json:"height"`

	// Format is the format guessed from the file extension: "png", "jpeg",
	// "gif", "bmp", "tiff", "webp" or "unknown".
	Format string `json:"format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Load decodes the image at path and returns it together with its metadata.
//
// Photos exported from a camera roll frequently carry an EXIF orientation tag,
// and the annotation coordinates were drawn on the upright image, so the
// orientation is applied while decoding.
//
// # Errors
//
//   - Returns an error wrapping the os error if the file cannot be opened
//     (errors.Cause(err) satisfies os.IsNotExist for missing files)
//   - Returns an error if the contents are not a supported image format
func Load(path string) (image.Image, Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, Info{}, errors.Wrapf(err, "failed to open image %s", path)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, Info{}, errors.Wrapf(err, "failed to decode image %s", path)
	}

	bounds := img.Bounds()
	return img, Info{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        FormatFromPath(path),
		FileSizeBytes: stat.Size(),
	}, nil
}

// FormatFromPath maps a file extension to a format name. Detection is based
// on the extension only, not the file contents.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".bmp":
		return "bmp"
	case ".tif", ".tiff":
		return "tiff"
	case ".webp":
		return "webp"
	default:
		return "unknown"
	}
}
