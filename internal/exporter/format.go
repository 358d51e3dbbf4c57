package exporter

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"cgmdose/pkg/contracts/domain"
)

// formatFloat formats a float64 value for report output with exactly 2
// decimal places. Undefined values render as "n/a".
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", f)
}

// formatValue formats a table cell with the shortest exact representation.
func formatValue(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatTime formats a timestamp in the export layout.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.TimestampLayout)
}

// cell returns the value of column c in r.
func cell(r domain.Record, c domain.Column) string {
	switch c {
	case domain.ColumnDateTime:
		return formatTime(r.DateTime)
	case domain.ColumnGlucose:
		return formatValue(r.Glucose)
	case domain.ColumnCarbs:
		return formatValue(r.Carbs)
	case domain.ColumnBolus:
		return formatValue(r.Bolus)
	case domain.ColumnBasal:
		return formatValue(r.Basal)
	case domain.ColumnHour:
		return strconv.Itoa(r.Hour)
	case domain.ColumnHourGroup:
		return strconv.Itoa(r.HourGroup)
	case domain.ColumnTargetDeviation:
		return formatValue(r.TargetDeviation)
	case domain.ColumnBolusRatio:
		return formatValue(r.BolusRatio)
	case domain.ColumnNewRatio:
		return formatValue(r.NewRatio)
	default:
		return ""
	}
}

// TableRows renders t as a header row plus one string row per record, with
// the materialized derived columns after the canonical ones.
func TableRows(t domain.Table) ([]string, [][]string) {
	columns := t.Columns()
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = string(c)
	}

	rows := make([][]string, 0, t.Len())
	for _, r := range t.Records {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = cell(r, c)
		}
		rows = append(rows, row)
	}
	return headers, rows
}
