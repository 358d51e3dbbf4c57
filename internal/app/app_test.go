package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cgmdose/internal/config"
	"cgmdose/internal/shared/testutil"
	"cgmdose/internal/storage"
)

func newTestApplication(t *testing.T) (*Application, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Logging.Format = "json"
	cfg.Analytics.Target = 110
	cfg.Analytics.ISF = 50
	cfg.Database.Name = "diabetes"
	cfg.Database.User = "cgm"

	var out bytes.Buffer
	application, err := NewApplication(cfg, &out)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Stop(context.Background()) })
	return application, &out
}

func TestNewApplication(t *testing.T) {
	application, out := newTestApplication(t)

	assert.NotNil(t, application.Telemetry.Registry)
	application.Logger.Info("hello")
	assert.Contains(t, out.String(), `"msg":"hello"`)
}

func TestNewApplication_InvalidTelemetry(t *testing.T) {
	cfg := config.Default()
	cfg.Telemetry.Traces = "zipkin"

	_, err := NewApplication(cfg, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestApplication_Engine(t *testing.T) {
	application, _ := newTestApplication(t)
	assert.Equal(t, 110.0, application.Engine().Target())
}

func TestApplication_StorageConfig(t *testing.T) {
	application, _ := newTestApplication(t)
	sc := application.StorageConfig()

	assert.Equal(t, "localhost", sc.Host)
	assert.Equal(t, 5432, sc.Port)
	assert.Equal(t, "diabetes", sc.Database)
	assert.Equal(t, "cgm", sc.Username)
	assert.Equal(t, config.DefaultTable, sc.Table)
	assert.Same(t, application.Logger, sc.Logger)
	require.NoError(t, sc.Validate())
}

func TestApplication_DryRunIngest(t *testing.T) {
	application, _ := newTestApplication(t)
	ctx := context.Background()

	in := t.TempDir()
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	testutil.NewClarityExport().
		EGV(day.Add(8*time.Hour), "130").
		Carbs(day.Add(8*time.Hour), 40).
		WriteFile(t, in, "export.csv")

	gateway, err := application.OpenGateway(ctx, true)
	require.NoError(t, err)
	defer gateway.Close()
	assert.IsType(t, &storage.Memory{}, gateway)

	svc, err := application.IngestService(gateway, "")
	require.NoError(t, err)
	result, err := svc.Ingest(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Inserted, "same timestamp stored once")

	families, err := application.Telemetry.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "cgmdose_files_transformed_total")
}

func TestApplication_OpenGatewayRejectsIncompleteConfig(t *testing.T) {
	application, _ := newTestApplication(t)
	application.Config.Database.Host = ""

	_, err := application.OpenGateway(context.Background(), false)
	assert.Error(t, err)
}
