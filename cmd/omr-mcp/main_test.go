package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/omr-grader-mcp/internal/bubbles"
	"github.com/ironsheep/omr-grader-mcp/internal/ocr"
	"github.com/ironsheep/omr-grader-mcp/internal/sheettest"
)

func writeFiles(t *testing.T, marks map[int]string, key string) (sheetPath, keyPath string) {
	t.Helper()
	dir := t.TempDir()

	p := sheettest.Default()
	for _, c := range bubbles.DefaultLayout().Cells() {
		p.Bubbles = append(p.Bubbles, sheettest.Bubble{
			X:      int(c.Center.X),
			Y:      int(c.Center.Y),
			Filled: marks[c.Question] == c.Option,
		})
	}

	sheetPath = filepath.Join(dir, "sheet.png")
	keyPath = filepath.Join(dir, "key.csv")
	require.NoError(t, os.WriteFile(sheetPath, p.PNG(), 0644))
	require.NoError(t, os.WriteFile(keyPath, []byte(key), 0644))
	return sheetPath, keyPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Keep a stray .env in the package directory out of the test
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd) //nolint:errcheck

	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

func TestGradeCommand(t *testing.T) {
	sheetPath, keyPath := writeFiles(t, map[int]string{1: "a", 2: "c"}, "Math\n1-a\n2-b\n")

	out, err := run(t, "grade", "--sheet", sheetPath, "--key", keyPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Math":1,"Total":1}`, out)
}

func TestGradeCommand_Details(t *testing.T) {
	sheetPath, keyPath := writeFiles(t, map[int]string{1: "a"}, "Math\n1-a\n")

	out, err := run(t, "grade", "--sheet", sheetPath, "--key", keyPath, "--details")
	require.NoError(t, err)

	var ev struct {
		Scores    map[string]int    `json:"scores"`
		Answers   map[string]string `json:"answers"`
		KeySource string            `json:"key_source"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ev))
	assert.Equal(t, map[string]int{"Math": 1, "Total": 1}, ev.Scores)
	assert.Equal(t, "a", ev.Answers["1"])
	assert.Equal(t, keyPath, ev.KeySource)
}

func TestGradeCommand_MultiMarkFlag(t *testing.T) {
	sheetPath, keyPath := writeFiles(t, nil, "Math\n\"1-a,b\"\n")

	// A second mark in row 1
	p := sheettest.Default()
	for _, c := range bubbles.DefaultLayout().Cells() {
		p.Bubbles = append(p.Bubbles, sheettest.Bubble{
			X:      int(c.Center.X),
			Y:      int(c.Center.Y),
			Filled: c.Question == 1 && (c.Option == "a" || c.Option == "b"),
		})
	}
	require.NoError(t, os.WriteFile(sheetPath, p.PNG(), 0644))

	out, err := run(t, "grade", "--sheet", sheetPath, "--key", keyPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Math":0,"Total":0}`, out)

	out, err = run(t, "grade", "--sheet", sheetPath, "--key", keyPath, "--multi-mark", "multi")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Math":1,"Total":1}`, out)
}

func TestGradeCommand_Errors(t *testing.T) {
	sheetPath, keyPath := writeFiles(t, nil, "Math\nnope\n")

	_, err := run(t, "grade", "--sheet", sheetPath)
	assert.Error(t, err, "--key is required")

	_, err = run(t, "grade", "--sheet", sheetPath, "--key", keyPath)
	assert.ErrorContains(t, err, "invalid answer key format")

	_, err = run(t, "grade", "--sheet", filepath.Join(t.TempDir(), "missing.png"), "--key", keyPath)
	assert.ErrorContains(t, err, "failed to read sheet")

	_, err = run(t, "grade", "--sheet", sheetPath, "--key", keyPath, "--multi-mark", "first")
	assert.ErrorContains(t, err, "multi-mark")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "omr-grader-mcp dev")
	assert.Contains(t, out, "Git commit: unknown")
	if ocr.Available {
		assert.NotContains(t, out, "Tesseract: not built in")
	} else {
		assert.Contains(t, out, "Tesseract: not built in")
	}
}
