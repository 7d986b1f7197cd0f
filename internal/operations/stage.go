package operations

import (
	"context"
	"sync"
	"time"
)

// Step is one stage of the pipeline
type Step interface {
	// ID returns the unique identifier for this step
	ID() string

	// Name returns the human-readable name for this step
	Name() string

	// Execute runs the step with the given context and operation state
	Execute(ctx context.Context, state *OperationState) error

	// Validate checks if the step can be executed with the current state
	Validate(state *OperationState) error

	// GetDependencies returns the IDs of steps that must complete before this step
	GetDependencies() []string

	// ProducedOutputs returns the files this step writes
	ProducedOutputs() []string
}

// StepStatus represents the current status of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState represents the runtime state of a step
type StepState struct {
	mu        sync.RWMutex
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Message   string     `json:"message,omitempty"`
	Error     error      `json:"-"`
}

// NewStepState creates a pending step state
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:     id,
		Name:   name,
		Status: StepStatusPending,
	}
}

// Start marks the step as active
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.Status = StepStatusActive
	s.StartTime = &now
}

// Complete marks the step as completed
func (s *StepState) Complete(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.Status = StepStatusCompleted
	s.EndTime = &now
	s.Message = message
}

// Fail marks the step as failed
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.Status = StepStatusFailed
	s.EndTime = &now
	s.Error = err
}

// Skip marks the step as skipped
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Status = StepStatusSkipped
	s.Message = reason
}

// GetStatus returns the current status
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns how long the step ran, zero if it never started
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime == nil {
		return time.Since(*s.StartTime)
	}
	return s.EndTime.Sub(*s.StartTime)
}

// BaseStage provides the identity part of a Step
type BaseStage struct {
	id           string
	name         string
	dependencies []string
	outputs      []string
}

// NewBaseStage creates a new base stage
func NewBaseStage(id, name string, dependencies []string, outputs ...string) BaseStage {
	return BaseStage{
		id:           id,
		name:         name,
		dependencies: dependencies,
		outputs:      outputs,
	}
}

// ID returns the stage ID
func (s *BaseStage) ID() string {
	return s.id
}

// Name returns the stage name
func (s *BaseStage) Name() string {
	return s.name
}

// GetDependencies returns the stage dependencies
func (s *BaseStage) GetDependencies() []string {
	return s.dependencies
}

// ProducedOutputs returns the files the stage writes
func (s *BaseStage) ProducedOutputs() []string {
	return s.outputs
}

// Validate requires every dependency to have completed
func (s *BaseStage) Validate(state *OperationState) error {
	for _, dep := range s.dependencies {
		st := state.GetStage(dep)
		if st == nil || st.GetStatus() != StepStatusCompleted {
			return NewValidationError(s.id, "dependency "+dep+" has not completed")
		}
	}
	return nil
}
