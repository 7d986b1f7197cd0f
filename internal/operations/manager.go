package operations

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"govpanel/internal/config"
	"govpanel/internal/infrastructure"
)

// Skipper is implemented by steps that can opt out of a run
type Skipper interface {
	ShouldSkip(state *OperationState) (bool, string)
}

// Manager runs the registered stages of the pipeline
type Manager struct {
	registry *Registry
	paths    *config.Paths
	tracer   *OperationTracer
	out      io.Writer
}

// NewManager creates a manager. Completion lines go to out; a nil out
// discards them.
func NewManager(registry *Registry, paths *config.Paths, telemetry *infrastructure.TelemetryProviders, out io.Writer) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if out == nil {
		out = io.Discard
	}
	return &Manager{
		registry: registry,
		paths:    paths,
		tracer:   NewOperationTracer(telemetry),
		out:      out,
	}
}

// RegisterStage registers a step with the pipeline
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// Run executes every stage in dependency order, one at a time. The first
// failing stage aborts the run. The manifest is saved whether or not the
// run succeeds.
func (m *Manager) Run(ctx context.Context) (*OperationState, error) {
	runID := infrastructure.GetRunID(ctx)
	if runID == "" {
		runID = infrastructure.GenerateRunID()
		ctx = infrastructure.WithRunID(ctx, runID)
	}
	logger := infrastructure.LoggerFromContext(ctx)

	steps, err := m.registry.GetDependencyOrder()
	if err != nil {
		return nil, err
	}

	state := NewOperationState(runID)
	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	manifest := NewPipelineManifest(runID)
	if m.paths != nil {
		manifest.RecordInputs(m.paths.Inputs())
	}

	ctx, span := m.tracer.TraceRun(ctx, runID, len(steps))
	defer span.End()

	logger.InfoContext(ctx, "Pipeline started", slog.Int("stage_count", len(steps)))

	state.Start()
	runErr := m.executeSequential(ctx, state, manifest, steps)
	if runErr != nil {
		state.Fail(runErr)
	} else {
		state.Complete()
		manifest.Complete()
	}

	duration := time.Since(state.StartTime)
	m.tracer.RecordRun(span, duration, runErr)
	m.saveManifest(ctx, manifest)

	if runErr != nil {
		logger.ErrorContext(ctx, "Pipeline failed",
			slog.String("error", runErr.Error()),
			slog.Duration("duration", duration))
		return state, runErr
	}

	logger.InfoContext(ctx, "Pipeline completed", slog.Duration("duration", duration))
	return state, nil
}

func (m *Manager) executeSequential(ctx context.Context, state *OperationState, manifest *PipelineManifest, steps []Step) error {
	logger := infrastructure.LoggerFromContext(ctx)

	for i, step := range steps {
		stepState := state.GetStage(step.ID())

		select {
		case <-ctx.Done():
			logger.WarnContext(ctx, "Pipeline cancelled", slog.String("stage", step.ID()))
			return NewCancellationError(step.ID(), ctx.Err())
		default:
		}

		if s, ok := step.(Skipper); ok {
			if skip, reason := s.ShouldSkip(state); skip {
				logger.InfoContext(ctx, "Stage skipped",
					slog.String("stage", step.ID()),
					slog.String("reason", reason))
				stepState.Skip(reason)
				manifest.RecordStageSkipped(step.ID(), step.Name())
				continue
			}
		}

		if err := step.Validate(state); err != nil {
			stepState.Fail(err)
			manifest.RecordStageFailure(step.ID(), err)
			return err
		}

		logger.InfoContext(ctx, "Executing stage",
			slog.String("stage", step.ID()),
			slog.Int("stage_number", i+1),
			slog.Int("total_stages", len(steps)))

		stepState.Start()
		manifest.RecordStageStart(step.ID(), step.Name())

		stageCtx, span := m.tracer.TraceStage(ctx, state.ID, step.ID())
		err := step.Execute(stageCtx, state)
		result := state.Result(step.ID())
		duration := stepState.Duration()
		m.tracer.RecordStage(stageCtx, span, step.ID(), duration, result, err)
		span.End()

		if err == nil {
			err = checkOutputs(step)
		}
		if err != nil {
			stepState.Fail(err)
			manifest.RecordStageFailure(step.ID(), err)
			return NewExecutionError(step.ID(), err)
		}

		message := ""
		if result != nil {
			message = result.Message
		}
		stepState.Complete(message)
		manifest.RecordStageCompletion(step.ID(), step.ProducedOutputs(), result)

		logger.InfoContext(ctx, "Stage completed",
			slog.String("stage", step.ID()),
			slog.Duration("duration", stepState.Duration()))

		if message != "" {
			fmt.Fprintln(m.out, message)
		}
	}

	return nil
}

// checkOutputs requires every file the step declares to exist after it ran
func checkOutputs(step Step) error {
	for _, path := range step.ProducedOutputs() {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("declared output %s missing: %w", path, err)
		}
	}
	return nil
}

func (m *Manager) saveManifest(ctx context.Context, manifest *PipelineManifest) {
	if m.paths == nil || m.paths.Manifest == "" {
		return
	}
	if err := manifest.SaveToFile(m.paths.Manifest); err != nil {
		infrastructure.LoggerFromContext(ctx).WarnContext(ctx, "Failed to save manifest",
			slog.String("path", m.paths.Manifest),
			slog.String("error", err.Error()))
	}
}
