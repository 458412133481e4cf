package ocr

import (
	"errors"
	"fmt"
	"image"
	"regexp"
	"strings"

	"github.com/ironsheep/omr-grader-mcp/internal/imaging"
)

// ErrUnavailable is returned when the binary was built without Tesseract.
var ErrUnavailable = errors.New("ocr not available: build with -tags tesseract")

// Word is one recognized word with its location and OCR confidence.
type Word struct {
	// Text is the recognized text content.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around the word in sheet coordinates.
	Bounds image.Rectangle `json:"bounds"`
}

// Header is the text read from a sheet header.
type Header struct {
	// Text is all recognized text with original line breaks.
	Text string `json:"text"`

	// Label identifies the sheet: the first run of three or more digits
	// (a roll number) if there is one, otherwise the first non-empty line.
	Label string `json:"label"`

	Words []Word `json:"words"`

	// Region is the header strip in sheet coordinates.
	Region image.Rectangle `json:"region"`
}

// HeaderReader reads sheet headers. The zero value reads the top 12% in
// English at 2× enlargement.
type HeaderReader struct {
	// Language is a Tesseract language code such as "eng" or "deu".
	Language string

	// Fraction is the share of the sheet height, from the top, to read.
	Fraction float64

	// Scale enlarges the strip before recognition.
	Scale float64

	// TessdataPrefix overrides Tesseract's data directory when set.
	TessdataPrefix string
}

func (r HeaderReader) withDefaults() HeaderReader {
	if r.Language == "" {
		r.Language = "eng"
	}
	if r.Fraction <= 0 || r.Fraction > 1 {
		r.Fraction = 0.12
	}
	if r.Scale <= 0 {
		r.Scale = 2
	}
	return r
}

// Region returns the header strip of a sheet with the given bounds.
func (r HeaderReader) Region(bounds image.Rectangle) image.Rectangle {
	r = r.withDefaults()
	h := int(float64(bounds.Dy())*r.Fraction + 0.5)
	if h < 1 {
		h = 1
	}
	return image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+h)
}

// ReadHeader recognizes the header strip of sheet.
func (r HeaderReader) ReadHeader(sheet image.Image) (*Header, error) {
	r = r.withDefaults()
	region := r.Region(sheet.Bounds())

	strip, err := imaging.Crop(sheet, region, r.Scale)
	if err != nil {
		return nil, fmt.Errorf("failed to crop header: %w", err)
	}

	text, words, err := recognize(strip, r.Language, r.TessdataPrefix)
	if err != nil {
		return nil, err
	}

	// Map word boxes from the enlarged strip back onto the sheet
	for i := range words {
		b := words[i].Bounds
		words[i].Bounds = image.Rect(
			region.Min.X+int(float64(b.Min.X)/r.Scale),
			region.Min.Y+int(float64(b.Min.Y)/r.Scale),
			region.Min.X+int(float64(b.Max.X)/r.Scale+0.5),
			region.Min.Y+int(float64(b.Max.Y)/r.Scale+0.5),
		)
	}

	return &Header{
		Text:   text,
		Label:  ExtractLabel(text),
		Words:  words,
		Region: region,
	}, nil
}

var rollNumber = regexp.MustCompile(`\d{3,}`)

// ExtractLabel picks a sheet label out of header text: the first run of
// three or more digits, or failing that the first non-empty trimmed line.
func ExtractLabel(text string) string {
	if m := rollNumber.FindString(text); m != "" {
		return m
	}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
