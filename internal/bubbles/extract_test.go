package bubbles

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/omr-grader-mcp/internal/imaging"
	"github.com/ironsheep/omr-grader-mcp/internal/sheet"
	"github.com/ironsheep/omr-grader-mcp/internal/sheettest"
)

var (
	ink   = color.RGBA{20, 20, 20, 255}
	paper = color.RGBA{255, 255, 255, 255}
)

// renderSheet draws a canonical sheet with every layout bubble printed and
// the given options filled in. extra may paint on top before conversion.
func renderSheet(layout Layout, marks map[int][]string, extra func(*image.RGBA)) *image.Gray {
	p := sheettest.Photo{
		Frame:  image.Pt(600, 800),
		Sheet:  image.Rect(0, 0, 600, 800),
		Radius: 12,
	}
	for _, c := range layout.Cells() {
		filled := false
		for _, o := range marks[c.Question] {
			if o == c.Option {
				filled = true
			}
		}
		p.Bubbles = append(p.Bubbles, sheettest.Bubble{X: int(c.Center.X), Y: int(c.Center.Y), Filled: filled})
	}

	img := p.Render()
	if extra != nil {
		extra(img)
	}
	return imaging.Grayscale(img, imaging.GrayLuma)
}

func newExtractor(t *testing.T, policy MultiMark) *Extractor {
	t.Helper()
	opts := DefaultOptions()
	opts.MultiMark = policy
	e, err := NewExtractor(DefaultLayout(), opts)
	require.NoError(t, err)
	return e
}

func TestAnalyze_SingleMarks(t *testing.T) {
	marks := map[int][]string{1: {"a"}, 2: {"c"}, 16: {"d"}, 30: {"b"}}
	gray := renderSheet(DefaultLayout(), marks, nil)

	ext := newExtractor(t, MultiMarkReject).Analyze(gray)

	assert.Equal(t, Answers{1: "a", 2: "c", 16: "d", 30: "b"}, ext.Answers)
	assert.Empty(t, ext.Ambiguous)
	assert.Greater(t, ext.Threshold, uint8(20))
	assert.Less(t, ext.Threshold, uint8(255))

	// Every printed bubble is a candidate: 30 rows × 4 options
	assert.Len(t, ext.Candidates, 120)
}

func TestAnalyze_MultiMarkReject(t *testing.T) {
	marks := map[int][]string{3: {"a", "b"}, 4: {"d"}}
	ext := newExtractor(t, MultiMarkReject).Analyze(renderSheet(DefaultLayout(), marks, nil))

	assert.Equal(t, Answers{4: "d"}, ext.Answers)
	assert.Equal(t, []int{3}, ext.Ambiguous)
	assert.Equal(t, []string{"a", "b"}, ext.Marks[3])
}

func TestAnalyze_MultiMarkMulti(t *testing.T) {
	marks := map[int][]string{3: {"d", "a"}, 4: {"d"}}
	ext := newExtractor(t, MultiMarkMulti).Analyze(renderSheet(DefaultLayout(), marks, nil))

	assert.Equal(t, Answers{3: "a,d", 4: "d"}, ext.Answers)
	assert.Empty(t, ext.Ambiguous)
}

func TestAnalyze_BlankSheet(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 600, 800))
	for i := range gray.Pix {
		gray.Pix[i] = 255
	}

	ext := newExtractor(t, MultiMarkReject).Analyze(gray)
	assert.Empty(t, ext.Answers)
	assert.Empty(t, ext.Candidates)
}

func TestAnalyze_UnmarkedSheet(t *testing.T) {
	ext := newExtractor(t, MultiMarkReject).Analyze(renderSheet(DefaultLayout(), nil, nil))

	assert.Empty(t, ext.Answers)
	for _, c := range ext.Candidates {
		assert.False(t, c.Filled, "empty ring at %v read as filled (ratio %.2f)", c.Center, c.FillRatio)
	}
}

func TestAnalyze_SizeBand(t *testing.T) {
	layout := DefaultLayout()
	b := layout.Blocks[0]

	// q5/a: a speck well below the band; q7/a: a blot above it; q9/b: a
	// regular mark
	speck := image.Pt(int(b.Left), int(b.Top+4*b.RowPitch))
	blot := image.Pt(int(b.Left), int(b.Top+6*b.RowPitch))
	gray := renderSheet(layout, map[int][]string{9: {"b"}}, func(img *image.RGBA) {
		sheettest.Disk(img, speck.X, speck.Y, 13, -1, paper)
		sheettest.Disk(img, speck.X, speck.Y, 6, -1, ink)
		sheettest.Disk(img, blot.X, blot.Y, 25, -1, ink)
	})

	e := newExtractor(t, MultiMarkReject)
	ext := e.Analyze(gray)

	assert.Equal(t, Answers{9: "b"}, ext.Answers)

	opts := e.Options()
	for q := range ext.Answers {
		found := false
		for _, c := range ext.Candidates {
			if c.Question != q || !c.Filled {
				continue
			}
			found = true
			assert.Greater(t, c.Area, opts.MinArea)
			assert.Less(t, c.Area, opts.MaxArea)
			assert.Greater(t, c.FillRatio, opts.FillThreshold)
		}
		assert.True(t, found, "answer for %d has no filled candidate", q)
	}
}

func TestAnalyze_OffGridMarkIgnored(t *testing.T) {
	// A filled bubble in the margin between the two blocks
	gray := renderSheet(DefaultLayout(), nil, func(img *image.RGBA) {
		sheettest.Disk(img, 300, 300, 12, -1, ink)
	})

	ext := newExtractor(t, MultiMarkReject).Analyze(gray)
	assert.Empty(t, ext.Answers)

	var stray *Candidate
	for i := range ext.Candidates {
		if ext.Candidates[i].Filled {
			stray = &ext.Candidates[i]
		}
	}
	require.NotNil(t, stray)
	assert.Zero(t, stray.Question)
}

func TestExtract_Sheet(t *testing.T) {
	gray := renderSheet(DefaultLayout(), map[int][]string{12: {"c"}}, nil)
	s := &sheet.Sheet{Gray: gray}

	assert.Equal(t, Answers{12: "c"}, newExtractor(t, MultiMarkReject).Extract(s))
}

func TestNewExtractor_Defaults(t *testing.T) {
	e, err := NewExtractor(DefaultLayout(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 300.0, e.Options().MinArea)
	assert.Equal(t, 1200.0, e.Options().MaxArea)
	assert.Equal(t, 0.4, e.Options().FillThreshold)
	assert.Equal(t, MultiMarkReject, e.Options().MultiMark)

	_, err = NewExtractor(DefaultLayout(), Options{MultiMark: "both"})
	assert.Error(t, err)

	_, err = NewExtractor(Layout{}, Options{})
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestParseMultiMark(t *testing.T) {
	tests := []struct {
		in      string
		want    MultiMark
		wantErr bool
	}{
		{"", MultiMarkReject, false},
		{"reject", MultiMarkReject, false},
		{" MULTI ", MultiMarkMulti, false},
		{"first", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMultiMark(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestOverlayCells(t *testing.T) {
	e := newExtractor(t, MultiMarkReject)
	ext := &Extraction{Marks: map[int][]string{1: {"b"}, 20: {"a", "c"}}}

	cells := e.OverlayCells(ext)
	require.Len(t, cells, 120)

	marked := 0
	labelled := 0
	for _, c := range cells {
		if c.Marked {
			marked++
		}
		if c.Label != "" {
			labelled++
		}
		assert.Equal(t, 12, c.Radius)
	}
	assert.Equal(t, 3, marked)
	assert.Equal(t, 30, labelled)

	// q1/b is the second cell of the first row
	assert.Equal(t, image.Pt(140, 180), cells[1].Center)
	assert.True(t, cells[1].Marked)
	assert.Equal(t, "1", cells[0].Label)
}
