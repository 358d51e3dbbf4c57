package files

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_TransformedPath(t *testing.T) {
	m := NewManager("out")
	assert.Equal(t, "out", m.OutputDir())

	tests := []struct {
		source   string
		expected string
	}{
		{"data/Clarity_Export.csv", filepath.Join("out", "Clarity_Export_transformed.csv")},
		{"/abs/export.xlsx", filepath.Join("out", "export_transformed.csv")},
		{"noext", filepath.Join("out", "noext_transformed.csv")},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.expected, m.TransformedPath(tt.source))
		})
	}
}
