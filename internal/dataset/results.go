package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Kalpithaac/enitity/internal/actionable"
	"github.com/Kalpithaac/enitity/internal/aggregator"
)

const (
	ResultsSheet = "results"
	SummarySheet = "summary"
)

// Summarize feeds the results to the aggregator.
func Summarize(results []Result) aggregator.Summary {
	records := make([]aggregator.Record, len(results))
	for i, r := range results {
		records[i] = aggregator.Record{
			Fields: r.Entry.Fields,
			Values: r.Values.Map(),
			Failed: r.Error != "",
		}
	}
	return aggregator.Aggregate(records)
}

// WriteResults saves a workbook with one row per document on the results
// sheet and per-field fill rates plus operator notes on the summary sheet.
func WriteResults(path string, results []Result) (aggregator.Summary, error) {
	summary := Summarize(results)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return summary, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return summary, fmt.Errorf("add sheet: %w", err)
	}

	columns := fieldColumns(results)
	header := []any{"id", "file"}
	for _, c := range columns {
		header = append(header, c)
	}
	header = append(header, "error", "duration_ms")
	if err := setRow(f, ResultsSheet, 1, header); err != nil {
		return summary, err
	}

	for i, r := range results {
		values := r.Values.Map()
		row := []any{r.Entry.ID, r.Entry.Path}
		for _, c := range columns {
			row = append(row, values[c])
		}
		row = append(row, r.Error, r.DurationMs)
		if err := setRow(f, ResultsSheet, i+2, row); err != nil {
			return summary, err
		}
	}

	rows := [][]any{
		{"documents", summary.Documents},
		{"failed", summary.Failed},
		{},
		{"field", "requested", "filled", "fill_rate"},
	}
	for _, s := range summary.Fields {
		rows = append(rows, []any{s.Field, s.Requested, s.Filled, s.FillRate})
	}
	rows = append(rows, []any{}, []any{"insight", "action"})
	for _, c := range actionable.Generate(summary) {
		rows = append(rows, []any{c.Insight, c.Action})
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if err := setRow(f, SummarySheet, i+1, row); err != nil {
			return summary, err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return summary, fmt.Errorf("save %s: %w", path, err)
	}
	return summary, nil
}

// fieldColumns is the union of requested fields in first-seen order.
func fieldColumns(results []Result) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range results {
		for _, f := range r.Entry.Fields {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}
