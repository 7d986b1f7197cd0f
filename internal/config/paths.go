package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Raw input file names as delivered by the upstream providers
const (
	ClassificationFile = "CLASS.xlsx"
	WDIFile            = "WDI Data.csv"
	WEOFile            = "WEOApr2024.xlsx"
	WGIFile            = "wgidataset.xlsx"
	ILOFile            = "ILO Data.csv"
)

// Persisted intermediate and final tables
const (
	CleanedWDIFile  = "cleaned_wdi.csv"
	CleanedWEOFile  = "cleaned_weo.csv"
	CleanedWGIFile  = "cleaned_wgi.csv"
	CleanedILOFile  = "cleaned_ilo.csv"
	MasterPanelFile = "master_panel_cleaned.csv"
)

// Analysis artefacts
const (
	RegionTrendsFile   = "region_trends.csv"
	LaggedPanelFile    = "lagged_panel.csv"
	LagRegressionsFile = "lag_regressions.csv"
	ManifestFile       = "pipeline_manifest.json"
)

// Paths contains every file path the pipeline touches.
// This is the single source of truth for file locations.
type Paths struct {
	DataDir     string
	OutputDir   string
	AnalysisDir string
	FiguresDir  string

	// Raw inputs
	Classification string
	WDI            string
	WEO            string
	WGI            string
	ILO            string

	// Cleaned intermediates
	CleanedWDI string
	CleanedWEO string
	CleanedWGI string
	CleanedILO string

	MasterPanel string

	RegionTrends   string
	LaggedPanel    string
	LagRegressions string
	Manifest       string
	MetricsFile    string
}

// NewPaths resolves all file names against the configured directories
func NewPaths(cfg PathsConfig, telemetry TelemetryConfig) *Paths {
	data := cfg.DataDir
	out := cfg.OutputDir
	analysis := cfg.AnalysisDir

	p := &Paths{
		DataDir:     data,
		OutputDir:   out,
		AnalysisDir: analysis,
		FiguresDir:  cfg.FiguresDir,

		Classification: filepath.Join(data, ClassificationFile),
		WDI:            filepath.Join(data, WDIFile),
		WEO:            filepath.Join(data, WEOFile),
		WGI:            filepath.Join(data, WGIFile),
		ILO:            filepath.Join(data, ILOFile),

		CleanedWDI: filepath.Join(out, CleanedWDIFile),
		CleanedWEO: filepath.Join(out, CleanedWEOFile),
		CleanedWGI: filepath.Join(out, CleanedWGIFile),
		CleanedILO: filepath.Join(out, CleanedILOFile),

		MasterPanel: filepath.Join(out, MasterPanelFile),

		RegionTrends:   filepath.Join(analysis, RegionTrendsFile),
		LaggedPanel:    filepath.Join(analysis, LaggedPanelFile),
		LagRegressions: filepath.Join(analysis, LagRegressionsFile),
		Manifest:       filepath.Join(analysis, ManifestFile),
	}

	if telemetry.MetricsFile != "" {
		p.MetricsFile = telemetry.MetricsFile
		if !filepath.IsAbs(p.MetricsFile) {
			p.MetricsFile = filepath.Join(analysis, p.MetricsFile)
		}
	}

	return p
}

// GetPaths resolves paths from a loaded configuration
func (c *Config) GetPaths() *Paths {
	return NewPaths(c.Paths, c.Telemetry)
}

// Inputs returns the raw input files in stage order
func (p *Paths) Inputs() []string {
	return []string{p.Classification, p.WDI, p.WEO, p.WGI, p.ILO}
}

// EnsureDirectories creates all output directories
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.OutputDir, p.AnalysisDir, p.FiguresDir}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// LogPathResolution logs all resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("Path resolution",
		slog.String("data_dir", p.DataDir),
		slog.String("output_dir", p.OutputDir),
		slog.String("analysis_dir", p.AnalysisDir),
		slog.String("figures_dir", p.FiguresDir),
		slog.String("master_panel", p.MasterPanel),
		slog.String("metrics_file", p.MetricsFile))
}
