package domain

import (
	"slices"
	"time"
)

// TimestampLayout is the timestamp format used by CGM exports and by every
// table written back out (YYYY-MM-DDThh:mm:ss).
const TimestampLayout = "2006-01-02T15:04:05"

// Column names a column of the canonical table.
type Column string

// Canonical columns, in output order.
const (
	ColumnDateTime  Column = "datetime"
	ColumnGlucose   Column = "glucose"
	ColumnCarbs     Column = "carbs"
	ColumnBolus     Column = "bolus"
	ColumnBasal     Column = "basal"
	ColumnHour      Column = "hour"
	ColumnHourGroup Column = "hour_group"
)

// Derived columns produced by the dosing analytics.
const (
	ColumnTargetDeviation Column = "target_deviation"
	ColumnBolusRatio      Column = "bolus_ratio"
	ColumnNewRatio        Column = "new_ratio"
)

// CanonicalColumns lists the columns every normalized table carries.
var CanonicalColumns = []Column{
	ColumnDateTime,
	ColumnGlucose,
	ColumnCarbs,
	ColumnBolus,
	ColumnBasal,
	ColumnHour,
	ColumnHourGroup,
}

// derivedOrder fixes the output order of derived columns regardless of the
// order in which they were added.
var derivedOrder = []Column{
	ColumnTargetDeviation,
	ColumnBolusRatio,
	ColumnNewRatio,
}

// Record represents one timestamped event or reading from a CGM/pump export.
// Zero in Glucose, Carbs, Bolus or Basal means "no value at this row".
type Record struct {
	DateTime  time.Time `json:"datetime" db:"datetime" validate:"required"`
	Glucose   float64   `json:"glucose" db:"glucose" validate:"min=0"`
	Carbs     float64   `json:"carbs" db:"carbs" validate:"min=0"`
	Bolus     float64   `json:"bolus" db:"bolus" validate:"min=0"`
	Basal     float64   `json:"basal" db:"basal" validate:"min=0"`
	Hour      int       `json:"hour" db:"hour" validate:"min=0,max=23"`
	HourGroup int       `json:"hour_group" db:"hour_group" validate:"min=0,max=7"`

	// Derived values, only meaningful when the owning Table lists the column
	// in Derived.
	TargetDeviation float64 `json:"target_deviation,omitempty"`
	BolusRatio      float64 `json:"bolus_ratio,omitempty"`
	NewRatio        float64 `json:"new_ratio,omitempty"`
}

// Table is a snapshot of normalized records plus the set of derived columns
// that have been materialized on it.
type Table struct {
	Records []Record `json:"records" validate:"dive"`
	Derived []Column `json:"derived,omitempty"`
}

// NewTable wraps records in a Table with no derived columns.
func NewTable(records []Record) Table {
	return Table{Records: records}
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Records)
}

// Has reports whether the column is present on the table.
func (t Table) Has(c Column) bool {
	return slices.Contains(CanonicalColumns, c) || slices.Contains(t.Derived, c)
}

// Columns returns the canonical columns followed by the derived ones.
func (t Table) Columns() []Column {
	cols := slices.Clone(CanonicalColumns)
	for _, c := range derivedOrder {
		if slices.Contains(t.Derived, c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	return Table{
		Records: slices.Clone(t.Records),
		Derived: slices.Clone(t.Derived),
	}
}

// WithDerived returns a copy of the table that lists c as materialized.
func (t Table) WithDerived(c Column) Table {
	out := t.Clone()
	if !slices.Contains(out.Derived, c) {
		out.Derived = append(out.Derived, c)
	}
	return out
}

// SortByDateTime returns a copy of the table ordered by timestamp.
func (t Table) SortByDateTime(desc bool) Table {
	out := t.Clone()
	slices.SortStableFunc(out.Records, func(a, b Record) int {
		if desc {
			return b.DateTime.Compare(a.DateTime)
		}
		return a.DateTime.Compare(b.DateTime)
	})
	return out
}

// Span returns the earliest and latest timestamps in the table. Both are zero
// for an empty table.
func (t Table) Span() (first, last time.Time) {
	for i, r := range t.Records {
		if i == 0 || r.DateTime.Before(first) {
			first = r.DateTime
		}
		if i == 0 || r.DateTime.After(last) {
			last = r.DateTime
		}
	}
	return first, last
}
