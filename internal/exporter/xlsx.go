package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"cgmdose/internal/dosing"
)

// Sheet names of the analysis workbook.
const (
	SheetSummary = "Summary"
	SheetGroups  = "Hour Groups"
	SheetRecords = "Records"
)

var groupHeaders = []interface{}{
	"Group", "Hours", "Events", "Carb Events", "Mean Glucose",
	"Matched Ratios", "Mean Bolus Ratio", "Mean New Ratio", "Total Bolus", "Total Basal",
}

// ReportWriter renders an analysis report as an XLSX workbook with a summary
// sheet, the per hour group breakdown and the enriched records.
type ReportWriter struct {
	logger *slog.Logger
}

// NewReportWriter creates a new report writer.
func NewReportWriter(logger *slog.Logger) *ReportWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportWriter{logger: logger}
}

// Write renders r to out.
func (w *ReportWriter) Write(out io.Writer, r dosing.Report) error {
	f, err := w.build(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteFile renders r to path, creating parent directories.
func (w *ReportWriter) WriteFile(path string, r dosing.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := w.build(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Wrote XLSX report",
		slog.String("path", path),
		slog.Int("record_count", r.Table.Len()))
	return nil
}

func (w *ReportWriter) build(r dosing.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	// NewFile starts with "Sheet1"; rename it instead of leaving it empty.
	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetGroups, SheetRecords} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	if err := writeSummary(f, r); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeGroups(f, r.Groups); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRecords(f, r); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeSummary(f *excelize.File, r dosing.Report) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total Daily Dose", numeric(r.TDD)},
		{"Insulin Sensitivity Factor", numeric(r.ISF)},
		{"Target Glucose", numeric(r.Target)},
		{"First Record", formatTime(r.First)},
		{"Last Record", formatTime(r.Last)},
		{"Records", r.Table.Len()},
	}
	return setRows(f, SheetSummary, rows)
}

func writeGroups(f *excelize.File, groups []dosing.GroupSummary) error {
	rows := make([][]interface{}, 0, len(groups)+1)
	rows = append(rows, groupHeaders)
	for _, g := range groups {
		rows = append(rows, []interface{}{
			g.Group, g.Label, g.Events, g.CarbEvents, round2(g.MeanGlucose),
			g.MatchedRatios, round2(g.MeanBolusRatio), round2(g.MeanNewRatio),
			round2(g.TotalBolus), round2(g.TotalBasal),
		})
	}
	return setRows(f, SheetGroups, rows)
}

func writeRecords(f *excelize.File, r dosing.Report) error {
	headers, rows := TableRows(r.Table)
	out := make([][]interface{}, 0, len(rows)+1)
	out = append(out, toCells(headers))
	for _, row := range rows {
		out = append(out, toCells(row))
	}
	return setRows(f, SheetRecords, out)
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// numeric keeps defined values as numbers and renders undefined ones as text.
func numeric(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return formatFloat(f)
	}
	return round2(f)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
