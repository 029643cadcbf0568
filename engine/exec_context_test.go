package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionState_MarkRunningCompleted(t *testing.T) {
	t.Parallel()
	s := NewExecutionState()

	assert.False(t, s.IsRunning("t1"))
	s.MarkRunning("t1")
	assert.True(t, s.IsRunning("t1"))
	assert.Equal(t, 0, s.ExecutionCount("t1"))

	s.MarkCompleted("t1", "result")
	assert.False(t, s.IsRunning("t1"))
	assert.True(t, s.IsCompleted("t1"))
	assert.Equal(t, 1, s.ExecutionCount("t1"))

	data, ok := s.TaskData("t1")
	require.True(t, ok)
	assert.Equal(t, "result", data)
}

func TestExecutionState_MarkFailed_AllowsRetry(t *testing.T) {
	t.Parallel()
	s := NewExecutionState()
	s.MarkRunning("t1")
	s.MarkFailed("t1")
	assert.False(t, s.IsRunning("t1"))
	assert.False(t, s.IsCompleted("t1"))
}

func TestExecutionState_ExecutionCount_CountsCompletionsNotAttempts(t *testing.T) {
	t.Parallel()
	s := NewExecutionState()

	// First attempt fails.
	s.MarkRunning("t1")
	s.MarkFailed("t1")
	assert.Equal(t, 0, s.ExecutionCount("t1"))

	// Second attempt succeeds.
	s.MarkRunning("t1")
	s.MarkCompleted("t1", "result")
	assert.Equal(t, 1, s.ExecutionCount("t1"))
}

func TestExecutionState_ResetTaskCompletion(t *testing.T) {
	t.Parallel()
	s := NewExecutionState()
	s.MarkRunning("t1")
	s.MarkCompleted("t1", nil)
	require.True(t, s.IsCompleted("t1"))

	s.ResetTaskCompletion("t1")
	assert.False(t, s.IsCompleted("t1"))
}

func TestExecutionState_DependenciesMet(t *testing.T) {
	t.Parallel()
	s := NewExecutionState()
	met, pending := s.DependenciesMet([]string{"a", "b"})
	assert.False(t, met)
	assert.ElementsMatch(t, []string{"a", "b"}, pending)

	s.MarkRunning("a")
	s.MarkCompleted("a", nil)
	met, pending = s.DependenciesMet([]string{"a", "b"})
	assert.False(t, met)
	assert.Equal(t, []string{"b"}, pending)

	s.MarkRunning("b")
	s.MarkCompleted("b", nil)
	met, pending = s.DependenciesMet([]string{"a", "b"})
	assert.True(t, met)
	assert.Empty(t, pending)
}

func TestExecutionState_TimingRecordsOutcome(t *testing.T) {
	t.Parallel()
	s := NewExecutionState()
	timing := s.StartTiming("t1", 0)
	s.EndTiming(timing, errors.New("boom"))

	summary := s.GetTaskTimingSummary("t1")
	assert.Contains(t, summary, "failed")
	assert.Contains(t, summary, "boom")
}

func TestExecutionState_TimingRecordsBreakpointAsInterrupted(t *testing.T) {
	t.Parallel()
	s := NewExecutionState()
	timing := s.StartTiming("t1", 0)
	s.EndTiming(timing, ErrBreakpoint)

	summary := s.GetTaskTimingSummary("t1")
	assert.Contains(t, summary, "interrupted")
}

func TestExecutionState_AbortGracefulVsHard(t *testing.T) {
	t.Parallel()
	s := NewExecutionState()
	aborted, graceful := s.Aborted()
	assert.False(t, aborted)

	s.Abort(true)
	aborted, graceful = s.Aborted()
	assert.True(t, aborted)
	assert.True(t, graceful)
}

func TestExecutionState_BreakpointLifecycle(t *testing.T) {
	t.Parallel()
	s := NewExecutionState()
	assert.Nil(t, s.Breakpoint())

	bp := &BreakpointState{TaskName: "t1", Data: "partial"}
	s.SetBreakpoint(bp)
	assert.Equal(t, bp, s.Breakpoint())

	s.ClearBreakpoint()
	assert.Nil(t, s.Breakpoint())
}

func TestExecutionState_SnapshotRestore_RoundTrips(t *testing.T) {
	t.Parallel()
	s := NewExecutionState()
	s.MarkRunning("t1")
	s.MarkCompleted("t1", "done")
	s.Abort(true)

	snap := s.snapshot()

	other := NewExecutionState()
	other.restore(snap)

	assert.True(t, other.IsCompleted("t1"))
	data, ok := other.TaskData("t1")
	require.True(t, ok)
	assert.Equal(t, "done", data)
	aborted, graceful := other.Aborted()
	assert.True(t, aborted)
	assert.True(t, graceful)
}
