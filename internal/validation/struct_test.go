package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cgmdose/internal/errors"
)

type sample struct {
	Name   string  `validate:"required"`
	Port   int     `validate:"min=1,max=65535"`
	Mode   string  `validate:"oneof=fast slow"`
	Table  string  `validate:"sqlident"`
	Target float64 `validate:"gt=0"`
}

func validSample() sample {
	return sample{Name: "cgm", Port: 5432, Mode: "fast", Table: "clarity_records", Target: 120}
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*sample)
		message string
	}{
		{name: "valid", mutate: func(*sample) {}},
		{name: "missing name", mutate: func(s *sample) { s.Name = "" }, message: "sample.Name is required"},
		{name: "port too high", mutate: func(s *sample) { s.Port = 70000 }, message: "sample.Port must be at most 65535"},
		{name: "bad mode", mutate: func(s *sample) { s.Mode = "medium" }, message: "sample.Mode must be one of: fast, slow"},
		{name: "injected table", mutate: func(s *sample) { s.Table = "x; DROP TABLE y" }, message: "sample.Table must be a plain SQL identifier"},
		{name: "leading digit", mutate: func(s *sample) { s.Table = "1records" }, message: "sample.Table must be a plain SQL identifier"},
		{name: "zero target", mutate: func(s *sample) { s.Target = 0 }, message: "sample.Target must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSample()
			tt.mutate(&s)

			err := Struct(s)
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsValidationError(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestStruct_ListsEveryField(t *testing.T) {
	err := Struct(sample{})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 5, appErr.Context["fields"])
}

func TestStruct_NotAStruct(t *testing.T) {
	err := Struct(42)
	assert.True(t, apperrors.IsValidationError(err))
}
