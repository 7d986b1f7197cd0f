package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"govpanel/internal/config"
	"govpanel/internal/exporter"
	"govpanel/internal/infrastructure"
	"govpanel/internal/panel"
)

// Report summarizes one analysis run
type Report struct {
	Rows         int
	Trends       []TrendRow
	Coefficients []Coefficient
	SkippedLags  []int
	Outputs      []string
}

// Runner consumes the persisted master panel and writes the analysis artefacts
type Runner struct {
	paths  *config.Paths
	cfg    config.AnalysisConfig
	writer *exporter.CSVWriter
}

// NewRunner creates a runner
func NewRunner(paths *config.Paths, cfg config.AnalysisConfig) *Runner {
	return &Runner{
		paths:  paths,
		cfg:    cfg,
		writer: exporter.NewCSVWriter(),
	}
}

// Run reads master_panel_cleaned.csv, computes region trends and the lag
// regressions, then renders the figures
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	logger := infrastructure.LoggerFromContext(ctx)

	p, err := panel.ReadPanel(r.paths.MasterPanel)
	if err != nil {
		return nil, err
	}
	Prepare(p)

	report := &Report{Rows: p.Len()}

	report.Trends = RegionTrends(p)
	if err := r.writer.WriteSimpleCSV(r.paths.RegionTrends, TrendHeader(), exporter.Records(report.Trends)); err != nil {
		return nil, fmt.Errorf("failed to write region trends: %w", err)
	}
	report.Outputs = append(report.Outputs, r.paths.RegionTrends)

	lags := r.cfg.Lags
	if len(lags) == 0 {
		lags = panel.DefaultLags
	}
	view := panel.NewLaggedView(p, lags)
	if err := r.writeLaggedPanel(view); err != nil {
		return nil, err
	}
	report.Outputs = append(report.Outputs, r.paths.LaggedPanel)

	for _, lag := range lags {
		coefs, err := EstimateLag(view, lag)
		if err != nil {
			if errors.Is(err, ErrInsufficientData) {
				logger.WarnContext(ctx, "Skipping lag regression",
					slog.Int("lag", lag),
					slog.String("reason", err.Error()))
				report.SkippedLags = append(report.SkippedLags, lag)
				continue
			}
			return nil, err
		}

		for _, c := range coefs {
			logger.InfoContext(ctx, "Lag regression estimated",
				slog.Int("lag", lag),
				slog.String("variable", c.Variable),
				slog.Float64("coefficient", c.Estimate),
				slog.Float64("std_error", c.StdError),
				slog.Int("nobs", c.NObs),
				slog.Int("entities", c.Entities))
		}
		report.Coefficients = append(report.Coefficients, coefs...)
	}

	if err := r.writer.WriteSimpleCSV(r.paths.LagRegressions, RegressionHeader, exporter.Records(report.Coefficients)); err != nil {
		return nil, fmt.Errorf("failed to write lag regressions: %w", err)
	}
	report.Outputs = append(report.Outputs, r.paths.LagRegressions)

	figures, err := WriteFigures(r.paths.FiguresDir, p, report.Trends, report.Coefficients)
	report.Outputs = append(report.Outputs, figures...)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Analysis completed",
		slog.Int("panel_rows", report.Rows),
		slog.Int("trend_rows", len(report.Trends)),
		slog.Int("coefficients", len(report.Coefficients)),
		slog.Int("figures", len(figures)))

	return report, nil
}

// writeLaggedPanel streams the regression view to lagged_panel.csv
func (r *Runner) writeLaggedPanel(view *panel.LaggedView) error {
	stream, err := r.writer.CreateStreamWriter(r.paths.LaggedPanel, view.Header())
	if err != nil {
		return fmt.Errorf("failed to write lagged panel: %w", err)
	}
	for _, row := range view.Rows {
		if err := stream.WriteRecord(row.Record()); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write lagged panel: %w", err)
		}
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to write lagged panel: %w", err)
	}

	slog.Debug("Lagged panel written",
		slog.String("file_path", r.paths.LaggedPanel),
		slog.Int("rows", stream.Rows()))
	return nil
}
