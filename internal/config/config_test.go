package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves the test into an empty directory so no stray config.yaml is picked up
func chdirTemp(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Logging, cfg.Logging)
	assert.Equal(t, def.Paths, cfg.Paths)
	assert.Equal(t, def.Telemetry, cfg.Telemetry)
	assert.Equal(t, []int{1, 2, 3}, cfg.Analysis.Lags)
	assert.False(t, cfg.Analysis.Skip)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)

	t.Setenv("PANEL_LOGGING_LEVEL", "DEBUG")
	t.Setenv("PANEL_PATHS_DATA_DIR", "/data/raw")
	t.Setenv("PANEL_ANALYSIS_SKIP", "true")
	t.Setenv("PANEL_ANALYSIS_LAGS", "1,2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/data/raw", cfg.Paths.DataDir)
	assert.True(t, cfg.Analysis.Skip)
	assert.Equal(t, []int{1, 2}, cfg.Analysis.Lags)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := chdirTemp(t)

	yaml := []byte(`
logging:
  level: warn
paths:
  data_dir: raw
  output_dir: clean
analysis:
  skip: true
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0644))
	t.Setenv("PANEL_PATHS_OUTPUT_DIR", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "raw", cfg.Paths.DataDir)
	assert.Equal(t, "from-env", cfg.Paths.OutputDir, "env must win over file")
	assert.True(t, cfg.Analysis.Skip)
}

func TestLoad_ValidationFailure(t *testing.T) {
	chdirTemp(t)

	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad level", key: "PANEL_LOGGING_LEVEL", val: "verbose"},
		{name: "bad output", key: "PANEL_LOGGING_OUTPUT", val: "syslog"},
		{name: "bad exporter", key: "PANEL_TELEMETRY_TRACE_EXPORTER", val: "otlp"},
		{name: "lag too large", key: "PANEL_ANALYSIS_LAGS", val: "1,20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewPaths(t *testing.T) {
	p := NewPaths(PathsConfig{
		DataDir:     "raw",
		OutputDir:   "clean",
		AnalysisDir: "out",
		FiguresDir:  "fig",
	}, TelemetryConfig{MetricsFile: "m.prom"})

	assert.Equal(t, filepath.Join("raw", "WDI Data.csv"), p.WDI)
	assert.Equal(t, filepath.Join("clean", "cleaned_wgi.csv"), p.CleanedWGI)
	assert.Equal(t, filepath.Join("clean", "master_panel_cleaned.csv"), p.MasterPanel)
	assert.Equal(t, filepath.Join("out", "m.prom"), p.MetricsFile)
	assert.Len(t, p.Inputs(), 5)

	abs := NewPaths(PathsConfig{AnalysisDir: "out"}, TelemetryConfig{MetricsFile: "/tmp/m.prom"})
	assert.Equal(t, "/tmp/m.prom", abs.MetricsFile)

	none := NewPaths(PathsConfig{}, TelemetryConfig{})
	assert.Empty(t, none.MetricsFile)
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	p := NewPaths(PathsConfig{
		DataDir:     base,
		OutputDir:   filepath.Join(base, "clean"),
		AnalysisDir: filepath.Join(base, "output"),
		FiguresDir:  filepath.Join(base, "figures"),
	}, TelemetryConfig{})

	require.NoError(t, p.EnsureDirectories())
	for _, dir := range []string{p.OutputDir, p.AnalysisDir, p.FiguresDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
