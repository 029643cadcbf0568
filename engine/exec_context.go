package engine

import (
	"sync"
	"time"
)

// TaskTiming records one attempt's timing and outcome, generalizing
// workflow.NodeExecution (StartTime/EndTime/Duration/Status/Error) from a
// single DAG-node record into a per-attempt record keyed by task name, since
// the engine's retry loop can execute the same task several times.
type TaskTiming struct {
	TaskName  string        `json:"task_name"`
	Attempt   int           `json:"attempt"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Status    string        `json:"status"` // running | completed | failed | timed_out
	Error     string        `json:"error,omitempty"`
}

// ExecutionState is the Workflow Engine's runtime state machine: which tasks
// are complete or currently running, per-task result data, how many times
// each task has executed, timing history, and abort/breakpoint flags. It
// generalizes workflow.DAGExecutor's separate visitedNodes/nodeResults maps
// (dag_executor.go) plus workflow.ExecutionHistory's node timing records
// (execution_history.go) into the single structure SPEC_FULL §4.4 names.
type ExecutionState struct {
	mu sync.RWMutex

	completedTasks  map[string]struct{}
	runningTasks    map[string]struct{}
	taskData        map[string]any
	executionCounts map[string]int
	timings         map[string][]*TaskTiming

	aborted          bool
	gracefulShutdown bool
	breakpoint       *BreakpointState
}

// BreakpointState captures where a workflow paused and what it was given, so
// Resume can hand the same data back to the interrupted task.
type BreakpointState struct {
	TaskName string    `json:"task_name"`
	Data     any       `json:"data"`
	At       time.Time `json:"at"`
}

// NewExecutionState creates an empty, running execution state.
func NewExecutionState() *ExecutionState {
	return &ExecutionState{
		completedTasks:  make(map[string]struct{}),
		runningTasks:    make(map[string]struct{}),
		taskData:        make(map[string]any),
		executionCounts: make(map[string]int),
		timings:         make(map[string][]*TaskTiming),
	}
}

// IsCompleted reports whether a task has finished at least once.
func (s *ExecutionState) IsCompleted(task string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.completedTasks[task]
	return ok
}

// IsRunning reports whether a task is currently executing, the re-entrancy
// guard equivalent to DAGExecutor.visitedNodes.
func (s *ExecutionState) IsRunning(task string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.runningTasks[task]
	return ok
}

// MarkRunning flags a task as in-flight. Callers must pair this with
// MarkCompleted or resetTaskCompletion in all code paths (including panics
// recovered higher up), matching the invariant DAGExecutor keeps between
// marking visitedNodes[id]=true and the node's eventual result being stored.
func (s *ExecutionState) MarkRunning(task string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runningTasks[task] = struct{}{}
}

// MarkCompleted moves a task from running to completed, stores its result
// data, and counts the completion. executionCounts tracks completions, not
// attempts, so a task that fails once then succeeds reports a count of 1.
func (s *ExecutionState) MarkCompleted(task string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runningTasks, task)
	s.completedTasks[task] = struct{}{}
	s.taskData[task] = data
	s.executionCounts[task]++
}

// MarkFailed moves a task out of running without marking it completed, so a
// subsequent attempt (retry) is allowed to re-enter.
func (s *ExecutionState) MarkFailed(task string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runningTasks, task)
}

// ResetTaskCompletion clears a task's completed flag so a loop or revision
// edge can re-enter it, directly generalizing DAGExecutor.executeLoopNode's
// delete(e.visitedNodes, nextNodeID) idiom from "this node's visited flag"
// to "this task's completed flag" (the engine has no separate visited-only
// state; completedTasks plays both roles).
func (s *ExecutionState) ResetTaskCompletion(task string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.completedTasks, task)
}

// TaskData returns the stored result of a task, if it has run.
func (s *ExecutionState) TaskData(task string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.taskData[task]
	return v, ok
}

// ExecutionCount returns how many times a task has completed (successful
// attempts only — a retried-then-succeeded task still counts as 1).
func (s *ExecutionState) ExecutionCount(task string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.executionCounts[task]
}

// DependenciesMet reports whether every named dependency is in
// completedTasks.
func (s *ExecutionState) DependenciesMet(deps []string) (bool, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []string
	for _, d := range deps {
		if _, ok := s.completedTasks[d]; !ok {
			pending = append(pending, d)
		}
	}
	return len(pending) == 0, pending
}

// StartTiming begins a new TaskTiming record for a task attempt and returns
// it for the caller to finish with EndTiming. attempt is the caller's own
// 0-based attempt index (executionCounts counts completions, not attempts,
// so it can't supply this).
func (s *ExecutionState) StartTiming(task string, attempt int) *TaskTiming {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &TaskTiming{
		TaskName:  task,
		Attempt:   attempt,
		StartTime: time.Now(),
		Status:    "running",
	}
	s.timings[task] = append(s.timings[task], t)
	return t
}

// EndTiming finalizes a timing record with its outcome.
func (s *ExecutionState) EndTiming(t *TaskTiming, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.EndTime = time.Now()
	t.Duration = t.EndTime.Sub(t.StartTime)
	switch {
	case err == ErrBreakpoint:
		t.Status = "interrupted"
	case err != nil:
		t.Status = "failed"
		t.Error = err.Error()
	default:
		t.Status = "completed"
	}
}

// GetTaskTimingSummary renders the timing history for a single task as a
// human-readable multi-line string, generalizing
// workflow.ExecutionHistory.GetNodeByID's per-node record lookup into a
// formatted summary of every attempt.
func (s *ExecutionState) GetTaskTimingSummary(task string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return formatTimings(s.timings[task])
}

// GetMainTimingSummary renders the timing history for every task, the
// workflow-wide analog of GetTaskTimingSummary, generalizing
// workflow.ExecutionHistory.GetNodes across every task name rather than a
// single DAG run.
func (s *ExecutionState) GetMainTimingSummary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out string
	for task, timings := range s.timings {
		out += task + ":\n" + formatTimings(timings)
	}
	return out
}

func formatTimings(timings []*TaskTiming) string {
	var out string
	for _, t := range timings {
		out += "  attempt " + itoa(t.Attempt) + ": " + t.Status + " in " + t.Duration.String()
		if t.Error != "" {
			out += " (" + t.Error + ")"
		}
		out += "\n"
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Abort marks the execution state aborted, graceful or hard. A graceful
// abort lets the currently running task finish its attempt; a hard abort is
// additionally propagated through the engine's context.CancelFunc.
func (s *ExecutionState) Abort(graceful bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted = true
	s.gracefulShutdown = graceful
}

// Aborted reports whether Abort has been called, and whether it was
// graceful.
func (s *ExecutionState) Aborted() (aborted, graceful bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aborted, s.gracefulShutdown
}

// SetBreakpoint records where the workflow paused.
func (s *ExecutionState) SetBreakpoint(bp *BreakpointState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakpoint = bp
}

// Breakpoint returns the current breakpoint, if any.
func (s *ExecutionState) Breakpoint() *BreakpointState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.breakpoint
}

// ClearBreakpoint removes the breakpoint marker, called by Resume once the
// interrupted task has been re-entered.
func (s *ExecutionState) ClearBreakpoint() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakpoint = nil
}

// execSnapshot is the serializable projection of ExecutionState used by
// PersistenceLayer, mirroring workflow.ExecutionContext's
// {WorkflowID,CurrentNode,NodeResults,Variables,...} shape but carrying the
// engine's richer running/completed/timing state instead.
type execSnapshot struct {
	CompletedTasks  map[string]struct{}  `json:"completed_tasks"`
	RunningTasks    map[string]struct{}  `json:"running_tasks"`
	TaskData        map[string]any       `json:"task_data"`
	ExecutionCounts map[string]int       `json:"execution_counts"`
	Timings         map[string][]*TaskTiming `json:"timings"`
	Aborted         bool                 `json:"aborted"`
	GracefulShutdown bool                `json:"graceful_shutdown"`
	Breakpoint      *BreakpointState     `json:"breakpoint,omitempty"`
}

func (s *ExecutionState) snapshot() execSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	completed := make(map[string]struct{}, len(s.completedTasks))
	for k := range s.completedTasks {
		completed[k] = struct{}{}
	}
	running := make(map[string]struct{}, len(s.runningTasks))
	for k := range s.runningTasks {
		running[k] = struct{}{}
	}
	data := make(map[string]any, len(s.taskData))
	for k, v := range s.taskData {
		data[k] = v
	}
	counts := make(map[string]int, len(s.executionCounts))
	for k, v := range s.executionCounts {
		counts[k] = v
	}
	timings := make(map[string][]*TaskTiming, len(s.timings))
	for k, v := range s.timings {
		timings[k] = v
	}
	return execSnapshot{
		CompletedTasks:   completed,
		RunningTasks:     running,
		TaskData:         data,
		ExecutionCounts:  counts,
		Timings:          timings,
		Aborted:          s.aborted,
		GracefulShutdown: s.gracefulShutdown,
		Breakpoint:       s.breakpoint,
	}
}

func (s *ExecutionState) restore(snap execSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completedTasks = snap.CompletedTasks
	if s.completedTasks == nil {
		s.completedTasks = make(map[string]struct{})
	}
	s.runningTasks = snap.RunningTasks
	if s.runningTasks == nil {
		s.runningTasks = make(map[string]struct{})
	}
	s.taskData = snap.TaskData
	if s.taskData == nil {
		s.taskData = make(map[string]any)
	}
	s.executionCounts = snap.ExecutionCounts
	if s.executionCounts == nil {
		s.executionCounts = make(map[string]int)
	}
	s.timings = snap.Timings
	if s.timings == nil {
		s.timings = make(map[string][]*TaskTiming)
	}
	s.aborted = snap.Aborted
	s.gracefulShutdown = snap.GracefulShutdown
	s.breakpoint = snap.Breakpoint
}
