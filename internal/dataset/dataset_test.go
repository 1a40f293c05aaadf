package dataset

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Kalpithaac/enitity/internal/gateway"
	"github.com/Kalpithaac/enitity/internal/logger"
	"github.com/Kalpithaac/enitity/internal/processor"
	"github.com/Kalpithaac/enitity/internal/types"
)

func writeManifest(t *testing.T, dir string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(dir, "manifest.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, [][]any{
		{"ID", "Document Path", "Fields"},
		{"inv-1", "a.txt", "name, date ,, total"},
		{"", "/abs/b.txt", "name"},
		{"skip", "", "name"},
	})

	entries, err := Load(path, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, Entry{Row: 2, ID: "inv-1", Path: filepath.Join(dir, "a.txt"), Fields: []string{"name", "date", "total"}}, entries[0])
	assert.Equal(t, "/abs/b.txt", entries[1].Path)
	assert.Equal(t, "b.txt", entries[1].ID)
	assert.Equal(t, 3, entries[1].Row)
}

func TestLoadIDHeaderBeforeFile(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, [][]any{
		{"Document ID", "File", "Fields"},
		{"inv-7", "c.pdf", "total"},
	})

	entries, err := Load(path, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "inv-7", entries[0].ID)
	assert.Equal(t, filepath.Join(dir, "c.pdf"), entries[0].Path)
}

func TestLoadLogsToInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	path := writeManifest(t, t.TempDir(), [][]any{
		{"file", "fields"},
		{"a.txt", "name"},
	})

	_, err := Load(path, logger.NewWith("production", "info", &buf))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "manifest loaded")
	assert.Contains(t, buf.String(), `"entries":1`)
}

func TestLoadMissingColumns(t *testing.T) {
	path := writeManifest(t, t.TempDir(), [][]any{
		{"id", "comment"},
		{"1", "x"},
	})
	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestLoadNoRows(t *testing.T) {
	path := writeManifest(t, t.TempDir(), [][]any{{"file", "fields"}})
	_, err := Load(path, nil)
	assert.Error(t, err)
}

type fixedExtractor struct{}

func (fixedExtractor) Process(_ context.Context, req types.ExtractionRequest) (types.FieldValues, error) {
	if strings.Contains(req.FileBase64, "Ym9vbQ") { // "boom"
		return nil, errors.New("gateway down")
	}
	return types.FieldValues(`{"name":"Acme","date":""}`), nil
}

func TestRunAndWriteResults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("Acme invoice"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("boom"), 0o644))

	entries := []Entry{
		{Row: 2, ID: "a", Path: filepath.Join(dir, "a.txt"), Fields: []string{"name", "date"}},
		{Row: 3, ID: "b", Path: filepath.Join(dir, "b.txt"), Fields: []string{"name"}},
		{Row: 4, ID: "c", Path: filepath.Join(dir, "missing.txt"), Fields: []string{"total"}},
	}

	results, err := Run(context.Background(), fixedExtractor{}, entries, RunOptions{Concurrency: 2, Timeout: time.Second}, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, "gateway down", results[1].Error)
	assert.Contains(t, results[2].Error, "read file")

	out := filepath.Join(dir, "out.xlsx")
	summary, err := WriteResults(out, results)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Documents)
	assert.Equal(t, 2, summary.Failed)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ResultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"id", "file", "name", "date", "total", "error", "duration_ms"}, rows[0])
	assert.Equal(t, []string{"a", filepath.Join(dir, "a.txt"), "Acme"}, rows[1][:3])
	assert.Equal(t, "gateway down", rows[2][5])

	sum, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"documents", "3"}, sum[0])
	assert.Equal(t, []string{"failed", "2"}, sum[1])
	assert.Equal(t, []string{"field", "requested", "filled", "fill_rate"}, sum[3])
	assert.Equal(t, "date", sum[4][0])
	assert.Equal(t, "name", sum[5][0])
	assert.Equal(t, "2", sum[5][1])
	assert.Equal(t, "1", sum[5][2])
}

func TestRunWithMockPipeline(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.txt"), []byte("some text"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), []byte("  "), 0o644))

	gw := gateway.NewMock()
	proc := processor.New(gw, 0, nil)
	results, err := Run(context.Background(), proc, []Entry{
		{ID: "doc", Path: filepath.Join(dir, "doc.txt"), Fields: []string{"vendor"}},
		{ID: "empty", Path: filepath.Join(dir, "empty.txt"), Fields: []string{"vendor"}},
	}, RunOptions{}, nil)
	require.NoError(t, err)

	assert.Equal(t, `{"vendor":""}`, string(results[0].Values))
	assert.Equal(t, `{}`, string(results[1].Values))
	assert.Equal(t, int64(1), gw.Calls())
}

func TestRunStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, fixedExtractor{}, []Entry{{ID: "a", Path: "/nonexistent"}}, RunOptions{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
