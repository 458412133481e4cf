// Package imaging provides the low-level image operations the OMR pipeline is
// built from.
//
// This package implements decoding, grayscale conversion, blurring, Canny edge
// detection, automatic (Otsu) thresholding, contrast-limited adaptive
// histogram equalization (CLAHE), perspective warping and overlay rendering.
// All operations work with standard Go image types and use a coordinate system
// where (0,0) is at the top-left corner, X increases rightward, and Y increases
// downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Functions returning new images always return images whose bounds start at
// (0,0), whatever the origin of their input.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images.
//
// # Grayscale Modes
//
// Two grayscale conversions are available:
//   - GrayLuma: ITU-R BT.601 style luminance (bild effect.Grayscale)
//   - GrayLab: CIE L* lightness (go-colorful), which keeps pale drop-out
//     colours printed on answer sheets light while pencil and pen stay dark
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Coordinates outside image bounds
//   - Degenerate quadrilaterals that admit no perspective transform
//   - File I/O and decoding errors
//   - Encoding errors during image output
package imaging
