package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/omr-grader-mcp/internal/bubbles"
	"github.com/ironsheep/omr-grader-mcp/internal/imaging"
)

// inTempDir runs the test from an empty directory so no stray .env is read.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Debug())
	assert.Equal(t, 600, cfg.Sheet.Width)
	assert.Equal(t, 800, cfg.Sheet.Height)
	assert.Equal(t, bubbles.MultiMarkReject, cfg.Bubbles.MultiMark)
	assert.Equal(t, bubbles.DefaultLayout(), cfg.Layout)
	assert.Equal(t, "eng", cfg.Header.Language)
	assert.Equal(t, 0.12, cfg.Header.Fraction)
}

func TestLoad_Environment(t *testing.T) {
	inTempDir(t)
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvCanonicalW, "1200")
	t.Setenv(EnvCanonicalH, "1600")
	t.Setenv(EnvDetectMaxDim, "0")
	t.Setenv(EnvGrayMode, "lab")
	t.Setenv(EnvMultiMark, "multi")
	t.Setenv(EnvFillThreshold, "0.55")
	t.Setenv(EnvOCRLanguage, "deu")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Debug())
	assert.Equal(t, 1200, cfg.Sheet.Width)
	assert.Equal(t, 1600, cfg.Sheet.Height)
	assert.Equal(t, 0, cfg.Sheet.DetectMaxDim)
	assert.Equal(t, imaging.GrayLab, cfg.Sheet.GrayMode)
	assert.Equal(t, bubbles.MultiMarkMulti, cfg.Bubbles.MultiMark)
	assert.Equal(t, 0.55, cfg.Bubbles.FillThreshold)
	assert.Equal(t, "deu", cfg.Header.Language)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OMR_MULTI_MARK=multi\n"), 0644))
	t.Cleanup(func() { os.Unsetenv(EnvMultiMark) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, bubbles.MultiMarkMulti, cfg.Bubbles.MultiMark)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		EnvCanonicalW:    "wide",
		EnvDetectMaxDim:  "-5",
		EnvGrayMode:      "hsv",
		EnvMultiMark:     "first",
		EnvFillThreshold: "1.5",
		EnvLayoutFile:    "/nonexistent/layout.yaml",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			inTempDir(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_LayoutFile(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
options: [A, B, C, D, E]
header_fraction: 0.2
blocks:
  - {first_question: 1, rows: 20, left: 90, top: 200, row_pitch: 28, col_pitch: 34}
`), 0644))
	t.Setenv(EnvLayoutFile, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, cfg.Layout.Options)
	require.Len(t, cfg.Layout.Blocks, 1)
	assert.Equal(t, 20, cfg.Layout.Blocks[0].Rows)
	assert.Equal(t, 12, cfg.Layout.BubbleRadius, "unset fields keep defaults")
	assert.Equal(t, 0.2, cfg.Header.Fraction)
}

func TestParseLayout_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown field": "options: [a]\ncolour: red\n",
		"bad yaml":      "options: [a\n",
		"invalid":       "options: [a, a]\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLayout([]byte(in))
			assert.Error(t, err)
		})
	}

	_, err := ParseLayout([]byte("options: [a, a]\n"))
	assert.ErrorIs(t, err, bubbles.ErrInvalidLayout)
}
