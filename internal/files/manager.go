package files

import (
	"path/filepath"
	"strings"
)

// Manager names the files written to an output directory.
type Manager struct {
	outputDir string
}

// NewManager creates a new file manager writing under outputDir.
func NewManager(outputDir string) *Manager {
	return &Manager{outputDir: outputDir}
}

// OutputDir returns the directory outputs are written to.
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// TransformedPath returns the CSV path for the normalized form of source:
// the source base name without extension plus "_transformed.csv".
func (m *Manager) TransformedPath(source string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(m.outputDir, stem+"_transformed.csv")
}
