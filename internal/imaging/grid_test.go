package imaging

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func decodeOverlay(t *testing.T, b64 string) image.Image {
	t.Helper()
	decoded, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(strings.NewReader(string(decoded)))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	return img
}

func TestGridOverlay(t *testing.T) {
	img := solidImage(100, 100, color.White)
	cells := []OverlayCell{
		{Center: image.Pt(30, 30), Radius: 8, Label: "1"},
		{Center: image.Pt(60, 30), Radius: 8, Marked: true},
	}

	result, err := GridOverlay(img, cells, "#FF0000", "#00FF00")
	if err != nil {
		t.Fatalf("GridOverlay failed: %v", err)
	}

	if result.Width != 100 || result.Height != 100 {
		t.Errorf("dimensions: got %dx%d, want 100x100", result.Width, result.Height)
	}
	if result.Cells != 2 || result.Marked != 1 {
		t.Errorf("counts: got cells=%d marked=%d, want 2/1", result.Cells, result.Marked)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	out := decodeOverlay(t, result.ImageBase64)

	// Marked bubble centre is filled with the mark colour
	r, g, b, _ := out.At(60, 30).RGBA()
	if uint8(r>>8) != 0 || uint8(g>>8) != 255 || uint8(b>>8) != 0 {
		t.Errorf("marked centre: got (%d,%d,%d), want (0,255,0)", r>>8, g>>8, b>>8)
	}

	// Outline of the unmarked bubble at the rightmost point of the circle
	r, g, b, _ = out.At(38, 30).RGBA()
	if uint8(r>>8) != 255 || uint8(g>>8) != 0 || uint8(b>>8) != 0 {
		t.Errorf("outline: got (%d,%d,%d), want (255,0,0)", r>>8, g>>8, b>>8)
	}

	// Unmarked centre keeps the background
	r, g, b, _ = out.At(30, 30).RGBA()
	if uint8(r>>8) != 255 || uint8(g>>8) != 255 || uint8(b>>8) != 255 {
		t.Errorf("unmarked centre: got (%d,%d,%d), want white", r>>8, g>>8, b>>8)
	}
}

func TestGridOverlay_InvalidColorsFallBack(t *testing.T) {
	img := solidImage(40, 40, color.White)
	cells := []OverlayCell{{Center: image.Pt(20, 20), Radius: 5, Marked: true}}

	if _, err := GridOverlay(img, cells, "nope", "#12"); err != nil {
		t.Fatalf("invalid colours should fall back, got %v", err)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input   string
		want    color.RGBA
		wantErr bool
	}{
		{"#FF0000", color.RGBA{255, 0, 0, 255}, false},
		{"00FF00", color.RGBA{0, 255, 0, 255}, false},
		{"#0000FF80", color.RGBA{0, 0, 255, 128}, false},
		{"", color.RGBA{}, true},
		{"#FFF", color.RGBA{}, true},
		{"#GGGGGG", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseHexColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error: got %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
