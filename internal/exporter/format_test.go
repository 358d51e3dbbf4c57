package exporter

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cgmdose/pkg/contracts/domain"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero value", input: 0, expected: "0.00"},
		{name: "rounds half up", input: 5.005001, expected: "5.01"},
		{name: "negative", input: -12.3, expected: "-12.30"},
		{name: "nan", input: math.NaN(), expected: "n/a"},
		{name: "infinity", input: math.Inf(1), expected: "n/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero value", input: 0, expected: "0"},
		{name: "integer", input: 120, expected: "120"},
		{name: "decimal", input: 0.275, expected: "0.275"},
		{name: "negative", input: -1.5, expected: "-1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatValue(tt.input))
		})
	}
}

func TestTableRows(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 5, 0, 0, time.UTC)
	table := domain.NewTable([]domain.Record{
		{DateTime: ts, Glucose: 140, Hour: 8, HourGroup: 2},
		{DateTime: ts.Add(time.Minute), Carbs: 45, Bolus: 4.5, Hour: 8, HourGroup: 2, BolusRatio: 10},
	}).WithDerived(domain.ColumnBolusRatio)

	headers, rows := TableRows(table)

	assert.Equal(t, []string{
		"datetime", "glucose", "carbs", "bolus", "basal", "hour", "hour_group", "bolus_ratio",
	}, headers)
	assert.Equal(t, [][]string{
		{"2024-03-01T08:05:00", "140", "0", "0", "0", "8", "2", "0"},
		{"2024-03-01T08:06:00", "0", "45", "4.5", "0", "8", "2", "10"},
	}, rows)
}

func TestTableRows_Empty(t *testing.T) {
	headers, rows := TableRows(domain.Table{})
	assert.Len(t, headers, len(domain.CanonicalColumns))
	assert.Empty(t, rows)
}
