package testutil

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// ClarityHeader is the header row of a Dexcom Clarity CSV export, including
// the columns the adapter ignores.
var ClarityHeader = []string{
	"Index",
	"Timestamp (YYYY-MM-DDThh:mm:ss)",
	"Event Type",
	"Event Subtype",
	"Patient Info",
	"Device Info",
	"Source Device ID",
	"Glucose Value (mg/dL)",
	"Insulin Value (u)",
	"Carb Value (grams)",
	"Duration (hh:mm:ss)",
	"Glucose Rate of Change (mg/dL/min)",
	"Transmitter Time (Long Integer)",
	"Transmitter ID",
}

// ClarityExport builds Clarity export fixtures row by row.
type ClarityExport struct {
	rows [][]string
}

// NewClarityExport starts an export with the patient and device metadata
// rows Clarity writes before the first event. Those rows have no timestamp.
func NewClarityExport() *ClarityExport {
	e := &ClarityExport{}
	e.add("", "FirstName", "", "Jane", "", "", "", "", "")
	e.add("", "LastName", "", "Doe", "", "", "", "", "")
	e.add("", "Device", "", "", "Dexcom G7", "iOS G7", "", "", "")
	return e
}

func (e *ClarityExport) add(ts, eventType, subtype, patient, device, source, glucose, insulin, carbs string) *ClarityExport {
	idx := strconv.Itoa(len(e.rows) + 1)
	e.rows = append(e.rows, []string{
		idx, ts, eventType, subtype, patient, device, source, glucose, insulin, carbs, "", "", "", "",
	})
	return e
}

func stamp(ts time.Time) string {
	return ts.Format("2006-01-02T15:04:05")
}

// EGV adds a glucose reading. value may be a number or "High"/"Low".
func (e *ClarityExport) EGV(ts time.Time, value string) *ClarityExport {
	return e.add(stamp(ts), "EGV", "", "", "", "iOS G7", value, "", "")
}

// Insulin adds an insulin dose with the given subtype.
func (e *ClarityExport) Insulin(ts time.Time, subtype string, units float64) *ClarityExport {
	return e.add(stamp(ts), "Insulin", subtype, "", "", "iOS G7", "", fmt.Sprint(units), "")
}

// Carbs adds a carb entry.
func (e *ClarityExport) Carbs(ts time.Time, grams float64) *ClarityExport {
	return e.add(stamp(ts), "Carbs", "", "", "", "iOS G7", "", "", fmt.Sprint(grams))
}

// Raw adds a row with a literal timestamp and glucose cell.
func (e *ClarityExport) Raw(ts, eventType, glucose string) *ClarityExport {
	return e.add(ts, eventType, "", "", "", "iOS G7", glucose, "", "")
}

// CSV renders the export as CSV bytes.
func (e *ClarityExport) CSV(t testing.TB) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ClarityHeader); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := w.WriteAll(e.rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	return buf.Bytes()
}

// XLSX renders the export as a single-sheet workbook.
func (e *ClarityExport) XLSX(t testing.TB) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	all := append([][]string{ClarityHeader}, e.rows...)
	for i, row := range all {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes the export into dir. Names ending in .xlsx produce a
// workbook, anything else CSV. It returns the full path.
func (e *ClarityExport) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()

	data := e.CSV(t)
	if filepath.Ext(name) == ".xlsx" {
		data = e.XLSX(t)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
