package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/receipt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingOCR struct {
	calls int
	texts map[string]string
}

func (c *countingOCR) ExtractText(_ context.Context, path string) (string, error) {
	c.calls++
	text, ok := c.texts[filepath.Base(path)]
	if !ok {
		return "", errors.New("unreadable")
	}
	return text, nil
}

func newTestScanner(ocr textExtractor, cache *scanCache, out *bytes.Buffer) *scanner {
	return &scanner{
		ocr:       ocr,
		extractor: receipt.NewExtractor(receipt.DefaultTables()),
		cache:     cache,
		out:       json.NewEncoder(out),
		logger:    zap.NewNop(),
	}
}

func decodeLines(t *testing.T, out *bytes.Buffer) []line {
	t.Helper()
	var lines []line
	for _, raw := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var l line
		require.NoError(t, json.Unmarshal([]byte(raw), &l))
		lines = append(lines, l)
	}
	return lines
}

func TestScanDirectoryUsesCache(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"a.jpg":      "image-a",
		"b.png":      "image-b",
		"notes.md":   "ignored",
		"broken.jpg": "image-c",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	ocr := &countingOCR{texts: map[string]string{
		"a.jpg": "TRADER JOE'S\nTOTAL $23.10",
		"b.png": "SHELL\nAMOUNT DUE 40.00",
	}}
	cache := &scanCache{Files: make(map[string]cachedResult)}

	var out bytes.Buffer
	failed, err := newTestScanner(ocr, cache, &out).scanPath(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 3, ocr.calls)

	lines := decodeLines(t, &out)
	require.Len(t, lines, 3)
	assert.Equal(t, "a.jpg", filepath.Base(lines[0].File))
	assert.Equal(t, "Trader Joe's", lines[0].Description)
	require.NotNil(t, lines[0].Amount)
	assert.InDelta(t, 23.10, *lines[0].Amount, 0.0001)
	assert.Equal(t, "b.png", filepath.Base(lines[1].File))
	assert.Equal(t, "Transportation", lines[1].Category)
	assert.Equal(t, "broken.jpg", filepath.Base(lines[2].File))
	assert.Equal(t, "unreadable", lines[2].Error)

	cacheFile := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, saveCache(cacheFile, cache))
	reloaded, err := loadCache(cacheFile)
	require.NoError(t, err)
	assert.Len(t, reloaded.Files, 2)

	out.Reset()
	_, err = newTestScanner(ocr, reloaded, &out).scanPath(context.Background(), filepath.Join(dir, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, 3, ocr.calls)
	lines = decodeLines(t, &out)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Cached)
	assert.Equal(t, "Trader Joe's", lines[0].Description)
}

func TestLoadCacheMissingFile(t *testing.T) {
	cache, err := loadCache(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, cache.Files)
}
