package clarity

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cgmdose/internal/dataprocessing"
	apperrors "cgmdose/internal/errors"
	"cgmdose/internal/shared/testutil"
	"cgmdose/pkg/contracts/domain"
)

var morning = time.Date(2024, 12, 1, 8, 0, 0, 0, time.UTC)

func transform(t *testing.T, name string, data []byte) (domain.Table, error) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	p := dataprocessing.NewPipeline(New(), dataprocessing.WithLogger(logger))
	return p.Transform(context.Background(), dataprocessing.Source{Name: name, Reader: bytes.NewReader(data)})
}

func TestParseGlucose(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{input: "High", want: 400},
		{input: "Low", want: 40},
		{input: "", want: 0},
		{input: "123", want: 123},
		{input: "98.5", want: 98.5},
		{input: "abc", wantErr: true},
		{input: "-5", wantErr: true},
		{input: "NaN", wantErr: true},
		{input: "high", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseGlucose(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsParseError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyInsulin(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		subtype   string
		wantBolus float64
		wantBasal float64
	}{
		{name: "fast acting", eventType: "Insulin", subtype: "Fast-Acting", wantBolus: 4},
		{name: "long acting", eventType: "Insulin", subtype: "Long-Acting", wantBasal: 4},
		{name: "unknown subtype", eventType: "Insulin", subtype: "Mixed"},
		{name: "not insulin", eventType: "EGV", subtype: "Fast-Acting"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bolus, basal := ClassifyInsulin(tt.eventType, tt.subtype, 4)
			assert.Equal(t, tt.wantBolus, bolus)
			assert.Equal(t, tt.wantBasal, basal)
		})
	}
}

func TestTransform_Export(t *testing.T) {
	data := testutil.NewClarityExport().
		EGV(morning, "High").
		EGV(morning.Add(5*time.Minute), "Low").
		Insulin(morning.Add(10*time.Minute), "Fast-Acting", 4.5).
		Insulin(morning.Add(15*time.Minute), "Long-Acting", 12).
		Carbs(morning.Add(20*time.Minute), 45).
		CSV(t)

	table, err := transform(t, "clarity.csv", data)
	require.NoError(t, err)
	require.Equal(t, 5, table.Len(), "metadata rows are dropped")
	assert.Equal(t, domain.CanonicalColumns, table.Columns())

	want := []domain.Record{
		{DateTime: morning, Glucose: 400, Hour: 8, HourGroup: 2},
		{DateTime: morning.Add(5 * time.Minute), Glucose: 40, Hour: 8, HourGroup: 2},
		{DateTime: morning.Add(10 * time.Minute), Bolus: 4.5, Hour: 8, HourGroup: 2},
		{DateTime: morning.Add(15 * time.Minute), Basal: 12, Hour: 8, HourGroup: 2},
		{DateTime: morning.Add(20 * time.Minute), Carbs: 45, Hour: 8, HourGroup: 2},
	}
	if diff := cmp.Diff(want, table.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestTransform_XLSXMatchesCSV(t *testing.T) {
	export := testutil.NewClarityExport().
		EGV(morning, "110").
		Insulin(morning, "Fast-Acting", 3).
		Carbs(morning, 30)

	fromCSV, err := transform(t, "clarity.csv", export.CSV(t))
	require.NoError(t, err)
	fromXLSX, err := transform(t, "clarity.xlsx", export.XLSX(t))
	require.NoError(t, err)

	if diff := cmp.Diff(fromCSV, fromXLSX); diff != "" {
		t.Errorf("xlsx differs from csv (-csv +xlsx):\n%s", diff)
	}
}

func TestTransform_Deterministic(t *testing.T) {
	data := testutil.NewClarityExport().
		EGV(morning, "150").
		Carbs(morning.Add(time.Hour), 20).
		CSV(t)

	first, err := transform(t, "a.csv", data)
	require.NoError(t, err)
	second, err := transform(t, "a.csv", data)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second))
}

func TestTransform_InvalidGlucose(t *testing.T) {
	data := testutil.NewClarityExport().
		EGV(morning, "120").
		Raw("2024-12-01T08:05:00", "EGV", "abc").
		CSV(t)

	_, err := transform(t, "clarity.csv", data)

	require.Error(t, err)
	assert.True(t, apperrors.IsParseError(err))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "abc", appErr.Context["value"])
	assert.Equal(t, 1, appErr.Context["row"])
}

func TestTransform_MissingTimestampColumn(t *testing.T) {
	data := []byte("Index,Event Type,Glucose Value (mg/dL)\n1,EGV,120\n")

	_, err := transform(t, "clarity.csv", data)

	require.Error(t, err)
	assert.True(t, apperrors.IsFormatError(err))
}

func TestTransform_UnparsableTimestampDropped(t *testing.T) {
	data := testutil.NewClarityExport().
		EGV(morning, "120").
		Raw("12/01/2024 08:05", "EGV", "125").
		CSV(t)

	table, err := transform(t, "clarity.csv", data)

	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, 120.0, table.Records[0].Glucose)
}
