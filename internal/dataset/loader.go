package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Kalpithaac/enitity/internal/logger"
)

// Entry is one manifest row: a document on disk and the fields to pull from it.
type Entry struct {
	Row    int // 1-based sheet row
	ID     string
	Path   string
	Fields []string
}

// Load reads the first sheet of an XLSX manifest. Columns are found by
// header heuristics: the document path (file/path/document), the field list
// (fields, comma separated) and an optional id. Relative paths are resolved
// against the manifest's directory. Rows without a path are skipped.
func Load(path string, logr *logger.Logger) ([]Entry, error) {
	if logr == nil {
		logr = logger.Nop()
	}
	log := logr.WithField("component", "dataset.loader").WithField("path", path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	pathIdx, fieldsIdx, idIdx := -1, -1, -1
	for i, h := range rows[0] {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "field"):
			if fieldsIdx == -1 {
				fieldsIdx = i
			}
		case l == "id" || strings.HasSuffix(l, " id"):
			if idIdx == -1 {
				idIdx = i
			}
		case strings.Contains(l, "file") || strings.Contains(l, "path") || strings.Contains(l, "document"):
			if pathIdx == -1 {
				pathIdx = i
			}
		case strings.Contains(l, "name"):
			if idIdx == -1 {
				idIdx = i
			}
		}
	}
	if pathIdx == -1 || fieldsIdx == -1 {
		return nil, fmt.Errorf("manifest header needs a file/path column and a fields column, got %q", rows[0])
	}
	log.WithField("path_col", pathIdx).WithField("fields_col", fieldsIdx).WithField("id_col", idIdx).
		Debug("detected manifest columns")

	base := filepath.Dir(path)
	var out []Entry
	for i, r := range rows[1:] {
		e := Entry{Row: i + 2}
		e.Path = strings.TrimSpace(cell(r, pathIdx))
		if e.Path == "" {
			continue
		}
		if !filepath.IsAbs(e.Path) {
			e.Path = filepath.Join(base, e.Path)
		}
		e.Fields = splitFields(cell(r, fieldsIdx))
		e.ID = strings.TrimSpace(cell(r, idIdx))
		if e.ID == "" {
			e.ID = filepath.Base(e.Path)
		}
		out = append(out, e)
	}
	log.WithField("entries", len(out)).Info("manifest loaded")
	return out, nil
}

func cell(r []string, idx int) string {
	if idx < 0 || idx >= len(r) {
		return ""
	}
	return r[idx]
}

func splitFields(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
