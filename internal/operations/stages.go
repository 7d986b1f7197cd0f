package operations

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"govpanel/internal/analysis"
	"govpanel/internal/config"
	dp "govpanel/internal/dataprocessing"
	"govpanel/internal/exporter"
	"govpanel/internal/infrastructure"
	"govpanel/internal/panel"
	"govpanel/internal/sources"
)

// Stage IDs
const (
	StageIDClassification = "classification"
	StageIDWDI            = "wdi"
	StageIDWEO            = "weo"
	StageIDWGI            = "wgi"
	StageIDILO            = "ilo"
	StageIDPanel          = "panel"
	StageIDAnalysis       = "analysis"
)

// ClassificationStage loads CLASS.xlsx and publishes it to the later stages
type ClassificationStage struct {
	BaseStage
	input string
}

// NewClassificationStage creates the classification stage
func NewClassificationStage(paths *config.Paths) *ClassificationStage {
	return &ClassificationStage{
		BaseStage: NewBaseStage(StageIDClassification, "Classification Loader", nil),
		input:     paths.Classification,
	}
}

// Execute loads the classification table
func (s *ClassificationStage) Execute(ctx context.Context, state *OperationState) error {
	class, err := sources.LoadClassifications(s.input)
	if err != nil {
		return err
	}

	state.SetClassifications(class)

	stats := dp.NewDropStats(StageIDClassification)
	stats.Read = class.Len()
	stats.Kept = class.Len()
	state.SetResult(s.ID(), &StageResult{Stats: stats})

	infrastructure.LoggerFromContext(ctx).InfoContext(ctx, "Classifications loaded",
		slog.String("path", s.input),
		slog.Int("countries", class.Len()))
	return nil
}

// CleanFunc cleans one raw source against the classification table
type CleanFunc[T exporter.Record] func(path string, class *sources.Classifications) (*sources.Result[T], error)

// CleanStage runs one source cleaner and persists its table
type CleanStage[T exporter.Record] struct {
	BaseStage
	input  string
	output string
	clean  CleanFunc[T]
	writer *exporter.CSVWriter
}

// NewCleanStage creates a cleaner stage reading input and writing output
func NewCleanStage[T exporter.Record](id, name string, paths *config.Paths, input, output string, clean CleanFunc[T]) *CleanStage[T] {
	return &CleanStage[T]{
		BaseStage: NewBaseStage(id, name, []string{StageIDClassification}, output),
		input:     input,
		output:    output,
		clean:     clean,
		writer:    exporter.NewCSVWriter(),
	}
}

// NewWDIStage creates the WDI cleaner stage
func NewWDIStage(paths *config.Paths) *CleanStage[sources.WDIRecord] {
	return NewCleanStage[sources.WDIRecord](StageIDWDI, "WDI Cleaner", paths, paths.WDI, paths.CleanedWDI, sources.CleanWDI)
}

// NewWEOStage creates the WEO cleaner stage
func NewWEOStage(paths *config.Paths) *CleanStage[sources.WEORecord] {
	return NewCleanStage[sources.WEORecord](StageIDWEO, "WEO Cleaner", paths, paths.WEO, paths.CleanedWEO, sources.CleanWEO)
}

// NewWGIStage creates the WGI cleaner stage
func NewWGIStage(paths *config.Paths) *CleanStage[sources.WGIRecord] {
	return NewCleanStage[sources.WGIRecord](StageIDWGI, "WGI Cleaner", paths, paths.WGI, paths.CleanedWGI, sources.CleanWGI)
}

// NewILOStage creates the ILO cleaner stage
func NewILOStage(paths *config.Paths) *CleanStage[sources.ILORecord] {
	return NewCleanStage[sources.ILORecord](StageIDILO, "ILO Cleaner", paths, paths.ILO, paths.CleanedILO, sources.CleanILO)
}

// Execute cleans the source and writes the cleaned CSV
func (s *CleanStage[T]) Execute(ctx context.Context, state *OperationState) error {
	res, err := s.clean(s.input, state.Classifications())
	if err != nil {
		return err
	}

	if err := s.writer.WriteSimpleCSV(s.output, res.Header, res.Records()); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(s.output), err)
	}

	infrastructure.LoggerFromContext(ctx).InfoContext(ctx, "Source cleaned",
		slog.String("stage", s.ID()),
		slog.String("output", s.output),
		slog.Int("rows_read", res.Stats.Read),
		slog.Int("rows_written", len(res.Rows)),
		slog.Int("rows_dropped", res.Stats.TotalDropped()))

	state.SetResult(s.ID(), &StageResult{
		Outputs:     []string{s.output},
		RowsWritten: len(res.Rows),
		Stats:       res.Stats,
		Message:     fmt.Sprintf("✅ %s written", filepath.Base(s.output)),
	})
	return nil
}

// PanelStage merges the cleaned tables into the master panel
type PanelStage struct {
	BaseStage
	builder *panel.Builder
	output  string
}

// NewPanelStage creates the panel stage
func NewPanelStage(paths *config.Paths) *PanelStage {
	return &PanelStage{
		BaseStage: NewBaseStage(StageIDPanel, "Panel Builder",
			[]string{StageIDWDI, StageIDWEO, StageIDWGI, StageIDILO}, paths.MasterPanel),
		builder: panel.NewBuilder(paths),
		output:  paths.MasterPanel,
	}
}

// Execute builds and writes master_panel_cleaned.csv
func (s *PanelStage) Execute(ctx context.Context, state *OperationState) error {
	p, stats, err := s.builder.Build(ctx)
	if err != nil {
		return err
	}

	if err := s.builder.Write(p); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(s.output), err)
	}

	state.SetResult(s.ID(), &StageResult{
		Outputs:     []string{s.output},
		RowsWritten: p.Len(),
		Stats:       stats,
		Message:     fmt.Sprintf("✅ %s ready (%s)", filepath.Base(s.output), p.ShapeString()),
	})
	return nil
}

// AnalysisStage runs the downstream analysis on the persisted panel
type AnalysisStage struct {
	BaseStage
	runner *analysis.Runner
	cfg    config.AnalysisConfig
}

// NewAnalysisStage creates the analysis stage
func NewAnalysisStage(paths *config.Paths, cfg config.AnalysisConfig) *AnalysisStage {
	return &AnalysisStage{
		BaseStage: NewBaseStage(StageIDAnalysis, "Analysis", []string{StageIDPanel},
			paths.RegionTrends, paths.LaggedPanel, paths.LagRegressions),
		runner: analysis.NewRunner(paths, cfg),
		cfg:    cfg,
	}
}

// ShouldSkip honours analysis.skip
func (s *AnalysisStage) ShouldSkip(*OperationState) (bool, string) {
	if s.cfg.Skip {
		return true, "disabled by configuration"
	}
	return false, ""
}

// Execute computes trends, lag regressions and figures
func (s *AnalysisStage) Execute(ctx context.Context, state *OperationState) error {
	report, err := s.runner.Run(ctx)
	if err != nil {
		return err
	}

	state.SetResult(s.ID(), &StageResult{
		Outputs:     report.Outputs,
		RowsWritten: len(report.Trends) + len(report.Coefficients),
		Message:     fmt.Sprintf("✅ analysis written (%d files)", len(report.Outputs)),
	})
	return nil
}

// NewPipeline registers every stage of the panel pipeline on a new manager
func NewPipeline(cfg *config.Config, paths *config.Paths, telemetry *infrastructure.TelemetryProviders, out io.Writer) (*Manager, error) {
	m := NewManager(NewRegistry(), paths, telemetry, out)

	steps := []Step{
		NewClassificationStage(paths),
		NewWDIStage(paths),
		NewWEOStage(paths),
		NewWGIStage(paths),
		NewILOStage(paths),
		NewPanelStage(paths),
		NewAnalysisStage(paths, cfg.Analysis),
	}
	for _, step := range steps {
		if err := m.RegisterStage(step); err != nil {
			return nil, fmt.Errorf("failed to register stage %s: %w", step.ID(), err)
		}
	}

	return m, nil
}
