// Package clarity adapts Dexcom Clarity exports to the canonical table.
//
// Clarity exports are CSV files (or workbooks saved from them) with one row
// per event: EGV glucose readings, insulin doses and carb entries. The first
// rows after the header carry patient and device metadata and have no
// timestamp; they are dropped on read.
package clarity

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"cgmdose/internal/dataprocessing"
	apperrors "cgmdose/internal/errors"
	"cgmdose/pkg/contracts/domain"
)

// Source column names.
const (
	ColumnIndex        = "Index"
	ColumnTimestamp    = "Timestamp (YYYY-MM-DDThh:mm:ss)"
	ColumnEventType    = "Event Type"
	ColumnEventSubtype = "Event Subtype"
	ColumnGlucose      = "Glucose Value (mg/dL)"
	ColumnInsulin      = "Insulin Value (u)"
	ColumnCarbs        = "Carb Value (grams)"
)

// columnInsulin is the intermediate name of the insulin amount before it is
// split into bolus and basal.
const columnInsulin = "insulin"

// Event values used for insulin classification.
const (
	EventTypeInsulin  = "Insulin"
	SubtypeFastActing = "Fast-Acting"
	SubtypeLongActing = "Long-Acting"
)

// Out-of-range glucose markers and the values they map to.
const (
	GlucoseHigh      = "High"
	GlucoseLow       = "Low"
	GlucoseHighValue = 400.0
	GlucoseLowValue  = 40.0
)

const (
	adapterName   = "dexcom-clarity"
	xlsxExtension = ".xlsx"
)

var renames = map[string]string{
	ColumnTimestamp: string(domain.ColumnDateTime),
	ColumnGlucose:   string(domain.ColumnGlucose),
	ColumnInsulin:   columnInsulin,
	ColumnCarbs:     string(domain.ColumnCarbs),
}

// Adapter implements dataprocessing.Adapter for Clarity exports.
type Adapter struct{}

var _ dataprocessing.Adapter = (*Adapter)(nil)

// New creates a Clarity adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name identifies the export format.
func (a *Adapter) Name() string {
	return adapterName
}

// RequiredColumns lists the columns retained from the export.
func (a *Adapter) RequiredColumns() []string {
	return []string{
		ColumnIndex,
		ColumnTimestamp,
		ColumnEventType,
		ColumnEventSubtype,
		ColumnGlucose,
		ColumnInsulin,
		ColumnCarbs,
	}
}

// TimestampColumn is the primary timestamp column.
func (a *Adapter) TimestampColumn() string {
	return ColumnTimestamp
}

// Read parses the export and drops rows without a timestamp. Workbooks are
// recognized by their .xlsx extension; everything else is read as CSV.
func (a *Adapter) Read(src dataprocessing.Source) (*dataprocessing.RawFrame, error) {
	var (
		frame *dataprocessing.RawFrame
		err   error
	)
	if strings.EqualFold(filepath.Ext(src.Name), xlsxExtension) {
		frame, err = dataprocessing.ReadXLSX(src.Reader)
	} else {
		frame, err = dataprocessing.ReadCSV(src.Reader)
	}
	if err != nil {
		return nil, err
	}

	frame, _ = frame.DropWhereEmpty(ColumnTimestamp)
	return frame, nil
}

// Rename maps Clarity column names to canonical names.
func (a *Adapter) Rename(f *dataprocessing.RawFrame) *dataprocessing.RawFrame {
	return f.Rename(renames)
}

// Finish splits insulin into bolus and basal, maps the out-of-range glucose
// markers and emits the canonical columns.
func (a *Adapter) Finish(f *dataprocessing.Frame) (domain.Table, error) {
	if !f.HasTimes() {
		return domain.Table{}, apperrors.NewFormatError("datetime column missing after rename", nil)
	}

	records := make([]domain.Record, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		glucose, err := ParseGlucose(f.Value(i, string(domain.ColumnGlucose)))
		if err != nil {
			return domain.Table{}, withRow(err, f, i)
		}
		carbs, err := parseAmount(string(domain.ColumnCarbs), f.Value(i, string(domain.ColumnCarbs)))
		if err != nil {
			return domain.Table{}, withRow(err, f, i)
		}
		insulin, err := parseAmount(columnInsulin, f.Value(i, columnInsulin))
		if err != nil {
			return domain.Table{}, withRow(err, f, i)
		}

		bolus, basal := ClassifyInsulin(f.Value(i, ColumnEventType), f.Value(i, ColumnEventSubtype), insulin)
		records = append(records, domain.Record{
			DateTime:  f.Times[i],
			Glucose:   glucose,
			Carbs:     carbs,
			Bolus:     bolus,
			Basal:     basal,
			Hour:      f.Hours[i],
			HourGroup: f.HourGroups[i],
		})
	}
	return domain.NewTable(records), nil
}

// ClassifyInsulin returns the dose as bolus for fast-acting insulin events and
// as basal for long-acting ones. Every other row contributes zero to both.
func ClassifyInsulin(eventType, subtype string, amount float64) (bolus, basal float64) {
	if eventType != EventTypeInsulin {
		return 0, 0
	}
	switch subtype {
	case SubtypeFastActing:
		return amount, 0
	case SubtypeLongActing:
		return 0, amount
	default:
		return 0, 0
	}
}

// ParseGlucose maps "High" to 400 and "Low" to 40, treats an empty cell as
// zero and otherwise requires a non-negative number.
func ParseGlucose(value string) (float64, error) {
	switch value {
	case GlucoseHigh:
		return GlucoseHighValue, nil
	case GlucoseLow:
		return GlucoseLowValue, nil
	}
	return parseAmount(string(domain.ColumnGlucose), value)
}

func parseAmount(column, value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		err = strconv.ErrSyntax
	}
	if err != nil {
		return 0, apperrors.NewParseError(fmt.Sprintf("invalid %s value %q", column, value), err).
			WithContext("column", column).
			WithContext("value", value)
	}
	if v < 0 {
		return 0, apperrors.NewParseError(fmt.Sprintf("negative %s value %q", column, value), nil).
			WithContext("column", column).
			WithContext("value", value)
	}
	return v, nil
}

func withRow(err error, f *dataprocessing.Frame, i int) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		appErr.WithContext("row", i).WithContext("index", f.Value(i, ColumnIndex))
	}
	return err
}
