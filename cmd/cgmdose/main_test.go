package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cgmdose/internal/shared/testutil"
	"cgmdose/pkg/contracts"
)

// execute runs the CLI in an empty working directory so no config.yaml or
// .env from the repository is picked up.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("CGM_LOGGING_FORMAT", "json")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeExport(t *testing.T, dir string) {
	t.Helper()
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	testutil.NewClarityExport().
		EGV(day.Add(7*time.Hour), "High").
		Carbs(day.Add(7*time.Hour+5*time.Minute), 45).
		Insulin(day.Add(7*time.Hour+10*time.Minute), "Fast-Acting", 4.5).
		WriteFile(t, dir, "Clarity_Export.csv")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, contracts.GetVersionString())
}

func TestTransformCommand(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeExport(t, in)

	stdout, stderr, err := execute(t, "transform", "--in", in, "--out", out)
	require.NoError(t, err, stderr)

	assert.Contains(t, stdout, "Clarity_Export.csv")
	data, err := os.ReadFile(filepath.Join(out, "Clarity_Export_transformed.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-03-09T07:10:00,0,0,4.5,0,7,2")
	assert.Contains(t, stderr, `"trace_id"`)
}

func TestIngestCommand_DryRun(t *testing.T) {
	in := t.TempDir()
	writeExport(t, in)

	stdout, stderr, err := execute(t, "ingest", "--in", in, "--dry-run")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "Records: 3, inserted: 3")
}

func TestTransformCommand_MissingInput(t *testing.T) {
	_, stderr, err := execute(t, "transform", "--in", filepath.Join(t.TempDir(), "missing"), "--out", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, stderr, "not found")
}

func TestAnalyzeCommand_RequiresDatabase(t *testing.T) {
	// The defaults carry no database name or user.
	_, stderr, err := execute(t, "analyze", "--days", "7")
	require.Error(t, err)
	assert.Contains(t, stderr, "is required")
}

func TestRun_ExitCodes(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.Equal(t, ExitCode(exitCodeSuccess), Run([]string{"version"}))
	assert.Equal(t, ExitCode(exitCodeError), Run([]string{"no-such-command"}))
}
