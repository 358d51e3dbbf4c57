package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cgmdose/internal/errors"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"CGM_DATABASE_HOST":      "db.internal",
				"CGM_DATABASE_PORT":      "6543",
				"CGM_DATABASE_TABLE":     "egv",
				"CGM_LOGGING_FORMAT":     "console",
				"CGM_ANALYTICS_TARGET":   "110.5",
				"CGM_INGEST_WORKERS":     "8",
				"CGM_TELEMETRY_TRACES":   "stdout",
				"CGM_TELEMETRY_METRICS":  "false",
				"CGM_TELEMETRY_PUSH_JOB": "nightly",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "db.internal", cfg.Database.Host)
				assert.Equal(t, 6543, cfg.Database.Port)
				assert.Equal(t, "egv", cfg.Database.Table)
				assert.Equal(t, DefaultSchema, cfg.Database.Schema)
				assert.Equal(t, "console", cfg.Logging.Format)
				assert.Equal(t, 110.5, cfg.Analytics.Target)
				assert.Equal(t, 8, cfg.Ingest.Workers)
				assert.Equal(t, "stdout", cfg.Telemetry.Traces)
				assert.False(t, cfg.Telemetry.Metrics)
				assert.Equal(t, "nightly", cfg.Telemetry.PushJob)
			},
		},
		{
			name: "file overlays defaults",
			file: `
database:
  schema: diabetes
  name: cgm
analytics:
  days: 30
  isf: 45
telemetry:
  push_timeout: 3s
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "diabetes", cfg.Database.Schema)
				assert.Equal(t, "cgm", cfg.Database.Name)
				assert.Equal(t, DefaultTable, cfg.Database.Table)
				assert.Equal(t, 30, cfg.Analytics.Days)
				assert.Equal(t, 45.0, cfg.Analytics.ISF)
				assert.Equal(t, DefaultTarget, cfg.Analytics.Target)
				assert.Equal(t, 3*time.Second, cfg.Telemetry.PushTimeout)
			},
		},
		{
			name: "environment beats file",
			env:  map[string]string{"CGM_ANALYTICS_DAYS": "7"},
			file: "analytics:\n  days: 30\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7, cfg.Analytics.Days)
			},
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"CGM_INGEST_WORKERS": "many"},
			wantErr: true,
		},
		{
			name:    "malformed file",
			file:    "analytics: [",
			wantErr: true,
		},
		{
			name:    "invalid table identifier",
			env:     map[string]string{"CGM_DATABASE_TABLE": "records;drop"},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"CGM_LOGGING_LEVEL": "verbose"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv("CGM_CONFIG_FILE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.file != "" {
				t.Setenv("CGM_CONFIG_FILE", writeConfigFile(t, tt.file))
			}

			cfg, err := Load()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CGM_CONFIG_FILE", "")
	t.Setenv("CGM_DATABASE_NAME", "")
	require.NoError(t, os.Unsetenv("CGM_DATABASE_NAME"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CGM_DATABASE_NAME=fromdotenv\n"), 0644))

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "fromdotenv", cfg.Database.Name)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "default is valid", mutate: func(*Config) {}},
		{name: "zero target", mutate: func(c *Config) { c.Analytics.Target = 0 }, wantErr: "Target"},
		{name: "negative days", mutate: func(c *Config) { c.Analytics.Days = -1 }, wantErr: "Days"},
		{name: "negative isf", mutate: func(c *Config) { c.Analytics.ISF = -3 }, wantErr: "ISF"},
		{name: "no workers", mutate: func(c *Config) { c.Ingest.Workers = 0 }, wantErr: "Workers"},
		{name: "bad pushgateway", mutate: func(c *Config) { c.Telemetry.PushgatewayURL = "not a url" }, wantErr: "PushgatewayURL"},
		{name: "unknown format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "Format"},
		{name: "file output without path", mutate: func(c *Config) {
			c.Logging.Output = "file"
			c.Logging.FilePath = ""
		}, wantErr: "FilePath"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
