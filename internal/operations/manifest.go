package operations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	dp "govpanel/internal/dataprocessing"
)

// PipelineManifest is the persisted record of one run: the inputs it saw and
// what every stage wrote or discarded
type PipelineManifest struct {
	mu sync.RWMutex

	RunID     string    `json:"run_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time,omitempty"`

	Inputs []InputFile      `json:"inputs"`
	Stages []StageExecution `json:"stages"`
	Status string           `json:"status"` // "running", "completed", "failed"
	Error  string           `json:"error,omitempty"`
}

// InputFile describes a raw input as found at the start of the run
type InputFile struct {
	Path    string    `json:"path"`
	Exists  bool      `json:"exists"`
	Size    int64     `json:"size,omitempty"`
	ModTime time.Time `json:"mod_time,omitempty"`
}

// StageExecution tracks the execution of a single stage
type StageExecution struct {
	StageID     string        `json:"stage_id"`
	StageName   string        `json:"stage_name"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time,omitempty"`
	Duration    string        `json:"duration,omitempty"`
	Status      string        `json:"status"` // "running", "completed", "failed", "skipped"
	Outputs     []string      `json:"outputs,omitempty"`
	RowsWritten int           `json:"rows_written,omitempty"`
	Stats       *dp.DropStats `json:"stats,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// NewPipelineManifest creates a manifest for a run
func NewPipelineManifest(runID string) *PipelineManifest {
	return &PipelineManifest{
		RunID:     runID,
		StartTime: time.Now(),
		Stages:    []StageExecution{},
		Status:    "running",
	}
}

// RecordInputs stats each raw input file
func (m *PipelineManifest) RecordInputs(paths []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Inputs = m.Inputs[:0]
	for _, p := range paths {
		in := InputFile{Path: p}
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			in.Exists = true
			in.Size = info.Size()
			in.ModTime = info.ModTime()
		}
		m.Inputs = append(m.Inputs, in)
	}
}

// RecordStageStart records the start of a stage execution
func (m *PipelineManifest) RecordStageStart(stageID, stageName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Stages = append(m.Stages, StageExecution{
		StageID:   stageID,
		StageName: stageName,
		StartTime: time.Now(),
		Status:    "running",
	})
}

// RecordStageCompletion records the completion of a stage. Outputs lists the
// declared files first, then any further files the stage reported.
func (m *PipelineManifest) RecordStageCompletion(stageID string, declared []string, result *StageResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st := m.find(stageID); st != nil {
		st.EndTime = time.Now()
		st.Duration = st.EndTime.Sub(st.StartTime).String()
		st.Status = "completed"
		st.Outputs = append([]string{}, declared...)
		if result != nil {
			st.Outputs = mergeOutputs(st.Outputs, result.Outputs)
			st.RowsWritten = result.RowsWritten
			st.Stats = result.Stats
		}
	}
}

// RecordStageSkipped records a stage that was not run
func (m *PipelineManifest) RecordStageSkipped(stageID, stageName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.Stages = append(m.Stages, StageExecution{
		StageID:   stageID,
		StageName: stageName,
		StartTime: now,
		EndTime:   now,
		Status:    "skipped",
	})
}

// RecordStageFailure records a stage failure and fails the run
func (m *PipelineManifest) RecordStageFailure(stageID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st := m.find(stageID); st != nil {
		st.EndTime = time.Now()
		st.Duration = st.EndTime.Sub(st.StartTime).String()
		st.Status = "failed"
		st.Error = err.Error()
	}
	m.Status = "failed"
	m.Error = fmt.Sprintf("stage %s failed: %v", stageID, err)
	m.EndTime = time.Now()
}

// Complete marks the run as completed
func (m *PipelineManifest) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Status = "completed"
	m.EndTime = time.Now()
}

// find returns the latest execution of stageID; callers hold the lock
func (m *PipelineManifest) find(stageID string) *StageExecution {
	for i := len(m.Stages) - 1; i >= 0; i-- {
		if m.Stages[i].StageID == stageID {
			return &m.Stages[i]
		}
	}
	return nil
}

// SaveToFile saves the manifest to a JSON file
func (m *PipelineManifest) SaveToFile(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}

	return nil
}

// LoadManifestFromFile loads a manifest from a JSON file
func LoadManifestFromFile(path string) (*PipelineManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest PipelineManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}

	return &manifest, nil
}

func mergeOutputs(outputs, more []string) []string {
	seen := make(map[string]struct{}, len(outputs))
	for _, o := range outputs {
		seen[o] = struct{}{}
	}
	for _, o := range more {
		if _, ok := seen[o]; !ok {
			seen[o] = struct{}{}
			outputs = append(outputs, o)
		}
	}
	return outputs
}
