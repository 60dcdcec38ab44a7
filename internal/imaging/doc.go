// Package imaging provides the image operations the dataset tools need:
// decoding exported photos, cropping annotated regions, drawing ground-truth
// overlays and describing regions as feature vectors.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate System
//
// Regions are image.Rectangle values relative to the image's Bounds().Min:
//   - Min is inclusive (top-left)
//   - Max is exclusive (bottom-right)
//
// Regions reaching past the image edge are clamped rather than rejected;
// annotations drawn by hand often overshoot by a pixel or two.
//
// # Supported Formats
//
// Load decodes PNG, JPEG, GIF, BMP, TIFF and WebP files and applies the EXIF
// orientation tag, so coordinates match the upright photo the user annotated.
//
// # Overlays
//
// Overlayer strokes each box in a colour chosen per label (see Palette) and
// prints the label on a filled tab above the box using the Go Regular font.
// The input image is never modified.
//
// # Features
//
// Features reduces a region to a grayscale thumbnail, a Sobel edge thumbnail
// and a few shape statistics. The builtin detector backend classifies regions
// from these vectors.
package imaging
