package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStep struct {
	BaseStage
	run   func(ctx context.Context, state *OperationState) error
	calls int
}

func newStub(id string, deps ...string) *stubStep {
	return &stubStep{BaseStage: NewBaseStage(id, "stub "+id, deps)}
}

func (s *stubStep) Execute(ctx context.Context, state *OperationState) error {
	s.calls++
	if s.run != nil {
		return s.run(ctx, state)
	}
	state.SetResult(s.ID(), &StageResult{Message: "✅ " + s.ID()})
	return nil
}

func ids(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.ID()
	}
	return out
}

func TestRegistry_GetDependencyOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newStub("panel", "wdi", "wgi")))
	require.NoError(t, r.Register(newStub("wdi", "classification")))
	require.NoError(t, r.Register(newStub("classification")))
	require.NoError(t, r.Register(newStub("wgi", "classification")))

	ordered, err := r.GetDependencyOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"classification", "wdi", "wgi", "panel"}, ids(ordered))
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(newStub("")))

	require.NoError(t, r.Register(newStub("wdi")))
	assert.Error(t, r.Register(newStub("wdi")), "duplicate IDs are rejected")

	ordered, err := r.GetDependencyOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"wdi"}, ids(ordered))
}

func TestRegistry_UnknownDependency(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newStub("panel", "wdi")))

	_, err := r.GetDependencyOrder()
	require.Error(t, err)

	oe, ok := AsOperationError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeDependency, oe.Type)
	assert.Equal(t, "panel", oe.Stage)
}

func TestRegistry_Cycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newStub("a", "b")))
	require.NoError(t, r.Register(newStub("b", "a")))

	_, err := r.GetDependencyOrder()
	assert.ErrorContains(t, err, "circular dependency")
}
