package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

// RunIDContextKey is the key for storing the pipeline run id in context
const RunIDContextKey contextKey = "run_id"

// GenerateRunID creates a new unique run id
func GenerateRunID() string {
	return uuid.New().String()
}

// WithRunID adds a run id to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDContextKey, runID)
}

// GetRunID retrieves the run id from context
func GetRunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if runID, ok := ctx.Value(RunIDContextKey).(string); ok {
		return runID
	}
	return ""
}
