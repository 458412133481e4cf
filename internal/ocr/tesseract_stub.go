//go:build !tesseract

package ocr

import "image"

// Available reports whether OCR is compiled in.
const Available = false

func recognize(image.Image, string, string) (string, []Word, error) {
	return "", nil, ErrUnavailable
}

// Version returns the linked Tesseract version, or "" without OCR support.
func Version() string {
	return ""
}
