package operations

import (
	"sync"
	"time"

	dp "govpanel/internal/dataprocessing"
	"govpanel/internal/sources"
)

// OperationStatus represents the status of a pipeline run
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
)

// StageResult is what a stage reports back once it has run
type StageResult struct {
	Outputs     []string
	RowsWritten int
	Stats       *dp.DropStats
	Message     string
}

// OperationState is the state shared by the stages of one run.
// The classification table is written once by the classification stage and
// only read afterwards.
type OperationState struct {
	mu        sync.RWMutex
	ID        string
	Status    OperationStatus
	StartTime time.Time
	EndTime   *time.Time
	Error     error

	steps           map[string]*StepState
	results         map[string]*StageResult
	classifications *sources.Classifications
}

// NewOperationState creates the state for a run
func NewOperationState(runID string) *OperationState {
	return &OperationState{
		ID:      runID,
		Status:  OperationStatusPending,
		steps:   make(map[string]*StepState),
		results: make(map[string]*StageResult),
	}
}

// Start marks the run as running
func (s *OperationState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Status = OperationStatusRunning
	s.StartTime = time.Now()
}

// Complete marks the run as completed
func (s *OperationState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.Status = OperationStatusCompleted
	s.EndTime = &now
}

// Fail marks the run as failed
func (s *OperationState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.Status = OperationStatusFailed
	s.EndTime = &now
	s.Error = err
}

// GetStage returns a stage's state, nil if it has not been registered with the run
func (s *OperationState) GetStage(id string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps[id]
}

// SetStage stores a stage's state
func (s *OperationState) SetStage(id string, st *StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[id] = st
}

// SetResult records a stage's result
func (s *OperationState) SetResult(id string, r *StageResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[id] = r
}

// Result returns a stage's result, nil if the stage did not report one
func (s *OperationState) Result(id string) *StageResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results[id]
}

// SetClassifications publishes the classification table to later stages
func (s *OperationState) SetClassifications(c *sources.Classifications) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classifications = c
}

// Classifications returns the shared classification table
func (s *OperationState) Classifications() *sources.Classifications {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classifications
}
