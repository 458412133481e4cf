// Package ocr reads the printed header of a normalized answer sheet using
// Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). It is only
// compiled in with the "tesseract" build tag, because gosseract needs cgo and
// the Tesseract and Leptonica libraries:
//
//	go build -tags tesseract ./...
//
// Without the tag every read returns ErrUnavailable and grading carries on
// without a sheet label.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// A non-standard data directory can be given with HeaderReader.TessdataPrefix.
//
// # Header Strip
//
// The header is the top Fraction of the canonical sheet, where the candidate
// name and roll number are printed. It is cropped and enlarged before
// recognition; word boxes are reported in sheet coordinates.
package ocr
