package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine is the Workflow Engine: a task registry plus the scheduler that
// walks dependency-gated tasks to completion, generalizing
// workflow.DAGExecutor's node-type dispatch loop (workflow/dag_executor.go)
// from a fixed NodeType switch into a named-task registry where each task
// carries its own dependencies, retry policy, and routing.
type Engine struct {
	workflowID string

	tasks map[string]*TaskDef

	ctx    *Context
	events *EventBus
	state  *ExecutionState

	persistence PersistenceLayer
	logger      *zap.Logger
	metrics     *Metrics

	cancel context.CancelFunc
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithPersistence attaches a PersistenceLayer backend for
// Breakpoint/Resume.
func WithPersistence(p PersistenceLayer) Option {
	return func(e *Engine) { e.persistence = p }
}

// WithLogger attaches a zap logger; a nil logger defaults to zap.NewNop(),
// matching the teacher's convention across workflow/*.go.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an Engine for a workflow run, generating a UUID workflow
// ID when one is not supplied (replacing workflow.generateExecutionID's
// fmt.Sprintf("exec_%d", time.Now().UnixNano()) with a collision-safe id,
// since multiple engines can start within the same nanosecond under load).
func NewEngine(workflowID string, opts ...Option) *Engine {
	if workflowID == "" {
		workflowID = uuid.NewString()
	}
	e := &Engine{
		workflowID: workflowID,
		tasks:      make(map[string]*TaskDef),
		ctx:        NewContext(),
		state:      NewExecutionState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	e.logger = e.logger.With(zap.String("component", "engine"), zap.String("workflow_id", e.workflowID))
	e.events = NewEventBus(e.logger)
	return e
}

// Context returns the engine's shared typed Context.
func (e *Engine) Context() *Context { return e.ctx }

// Events returns the engine's event bus.
func (e *Engine) Events() *EventBus { return e.events }

// State returns the engine's execution state.
func (e *Engine) State() *ExecutionState { return e.state }

// WorkflowID returns the engine's workflow ID.
func (e *Engine) WorkflowID() string { return e.workflowID }

// Task registers a task, the Engine analog of workflow.DAGGraph.AddNode.
// Registering a task with a name that already exists overwrites it, the
// same last-registration-wins behavior DAGGraph.AddNode has for node IDs.
func (e *Engine) Task(def TaskDef) error {
	if def.Name == "" {
		return fmt.Errorf("engine: task name must not be empty")
	}
	if def.Handler == nil {
		return fmt.Errorf("engine: task %q has no handler", def.Name)
	}
	e.tasks[def.Name] = &def
	return nil
}

// Start runs the workflow from entry with input, blocking until the
// workflow completes, aborts, or hits a breakpoint.
func (e *Engine) Start(ctx context.Context, entry string, input any) (any, error) {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	defer cancel()
	return e.executeTask(runCtx, entry, input)
}

// Abort signals the running workflow to stop. A hard abort (graceful=false)
// cancels the engine's context immediately, interrupting any in-flight
// task's own ctx.Done() checks. A graceful abort only flags
// ExecutionState.aborted, letting the in-flight attempt finish but
// preventing any further successor from being dispatched — the two-tier
// distinction SPEC_FULL §5 calls for, which workflow.DAGExecutor has no
// equivalent of (it offers no cancellation primitive beyond the caller's own
// ctx).
func (e *Engine) Abort(graceful bool) {
	e.state.Abort(graceful)
	if !graceful && e.cancel != nil {
		e.cancel()
	}
}

// executeTask is the Workflow Engine's scheduling algorithm, generalizing
// workflow.DAGExecutor.executeNode (workflow/dag_executor.go): dependency
// gate, re-entrancy guard, attempt loop with retry/backoff and a timeout
// race, successor resolution, and fan-out.
func (e *Engine) executeTask(ctx context.Context, name string, input any) (any, error) {
	def, ok := e.tasks[name]
	if !ok {
		return nil, NewTaskNotFoundError(name)
	}

	// 1. Dependency gate. Per SPEC_FULL §9's decision, an unmet dependency
	// never re-triggers anything automatically — it returns defensively,
	// the same "continue" behavior DAGExecutor.resolveNextNodes falls back
	// to rather than blocking.
	if met, pending := e.state.DependenciesMet(def.Dependencies); !met {
		return nil, NewDependencyError(name, pending)
	}

	// 2. Re-entrancy guard, generalizing DAGExecutor's visitedNodes check.
	if e.state.IsRunning(name) {
		if data, ok := e.state.TaskData(name); ok {
			return data, nil
		}
		return nil, fmt.Errorf("engine: task %q is already running", name)
	}
	if aborted, graceful := e.state.Aborted(); aborted && !graceful {
		return nil, ErrAborted
	}

	policy := PolicyFromTaskDef(def)
	var result any
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if aborted, graceful := e.state.Aborted(); aborted && !graceful {
			return nil, ErrAborted
		}

		e.state.MarkRunning(name)
		timing := e.state.StartTiming(name, attempt)

		spanCtx, span := startTaskSpan(ctx, name, attempt)
		result, lastErr = e.runAttempt(spanCtx, def, input, attempt)
		span.End()

		e.state.EndTiming(timing, lastErr)

		if lastErr == nil {
			e.metrics.observeAttempt(name, "completed", timing.Duration.Seconds())
			e.state.MarkCompleted(name, result)
			break
		}

		e.state.MarkFailed(name)

		if lastErr == ErrBreakpoint {
			e.metrics.observeBreakpoint(name)
			e.metrics.observeAttempt(name, "interrupted", timing.Duration.Seconds())
			return nil, ErrBreakpoint
		}

		e.metrics.observeAttempt(name, "failed", timing.Duration.Seconds())

		if attempt >= policy.MaxRetries {
			break
		}
		e.metrics.observeRetry(name)
		if err := policy.wait(ctx, attempt); err != nil {
			return nil, err
		}
	}

	if lastErr != nil {
		return nil, NewExecutionError(name, lastErr)
	}

	return e.dispatchSuccessors(ctx, def, result)
}

// runAttempt executes a single attempt of a task's handler under a timeout
// race, the Go realization of the timeout-or-complete select DAGExecutor's
// callers build manually with context.WithTimeout.
func (e *Engine) runAttempt(ctx context.Context, def *TaskDef, input any, attempt int) (any, error) {
	attemptCtx := ctx
	var cancel context.CancelFunc
	if def.TimeoutMs > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, time.Duration(def.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	p := ParamBundle{
		Ctx:      e.ctx,
		Events:   e.events,
		Input:    input,
		Attempt:  attempt,
		TaskName: def.Name,
		state:    e.state,
	}

	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := def.Handler(attemptCtx, p)
		done <- outcome{res, err}
	}()

	select {
	case <-attemptCtx.Done():
		if attemptCtx.Err() == context.DeadlineExceeded {
			return nil, NewTimeoutError(def.Name)
		}
		return nil, attemptCtx.Err()
	case o := <-done:
		return o.result, o.err
	}
}

// dispatchSuccessors resolves and runs a task's successors, implementing
// SPEC_FULL §9's routing priority: imperative redirect (carried on a
// RouteResult) > RouteResult.Next > the task's static Router > its static
// Successors list. Multiple successors fan out concurrently, generalizing
// workflow.ParallelWorkflow.Execute's goroutine/channel collection
// (workflow/parallel.go) to the engine's own task graph.
func (e *Engine) dispatchSuccessors(ctx context.Context, def *TaskDef, result any) (any, error) {
	// Per spec.md §5/§8 Scenario 5: once aborted (graceful or hard), the
	// just-completed task's own result still returns successfully, but no
	// successor is resolved or scheduled.
	if aborted, _ := e.state.Aborted(); aborted {
		return result, nil
	}

	dest, finalResult, err := e.resolveDestination(ctx, def, result)
	if err != nil {
		return nil, err
	}
	if dest == nil || dest.End {
		return finalResult, nil
	}

	if dest.Single != "" {
		return e.executeTask(ctx, dest.Single, finalResult)
	}

	if len(dest.Multiple) > 0 {
		type fanOut struct {
			name   string
			result any
			err    error
		}
		resultCh := make(chan fanOut, len(dest.Multiple))
		for _, next := range dest.Multiple {
			go func(taskName string) {
				res, err := e.executeTask(ctx, taskName, finalResult)
				resultCh <- fanOut{taskName, res, err}
			}(next)
		}
		results := make(map[string]any, len(dest.Multiple))
		var firstErr error
		for i := 0; i < len(dest.Multiple); i++ {
			o := <-resultCh
			if o.err != nil && firstErr == nil {
				firstErr = o.err
			}
			results[o.name] = o.result
		}
		if firstErr != nil {
			return nil, firstErr
		}
		return results, nil
	}

	return finalResult, nil
}

func (e *Engine) resolveDestination(ctx context.Context, def *TaskDef, result any) (*RoutingDestination, any, error) {
	if rr, ok := result.(RouteResult); ok {
		if rr.Next != nil {
			return rr.Next, rr.Result, nil
		}
		result = rr.Result
	}

	if def.Router != nil {
		dest, err := def.Router(ctx, result)
		if err != nil {
			return nil, nil, err
		}
		if dest != nil {
			return dest, result, nil
		}
	}

	if len(def.Successors) == 1 {
		return &RoutingDestination{Single: def.Successors[0]}, result, nil
	}
	if len(def.Successors) > 1 {
		return &RoutingDestination{Multiple: def.Successors}, result, nil
	}

	return &RoutingDestination{End: true}, result, nil
}

// Breakpoint persists the current snapshot so Resume can pick the workflow
// back up later, generalizing
// EnhancedCheckpointManager.CreateCheckpoint (workflow/checkpoint_enhanced.go).
func (e *Engine) Breakpoint(ctx context.Context) error {
	if e.persistence == nil {
		return fmt.Errorf("engine: no PersistenceLayer configured")
	}
	snap := &WorkflowSnapshot{
		WorkflowID:    e.workflowID,
		ContextState:  e.ctx.Snapshot(),
		EventState:    e.events.GetAllState(),
		ExecutionData: e.state.snapshot(),
		CreatedAt:     time.Now(),
	}
	return e.persistence.Save(ctx, snap)
}

// Resume loads the latest persisted snapshot for the engine's workflow ID,
// restores Context/EventBus/ExecutionState, and re-enters the breakpointed
// task with resumeData — generalizing
// EnhancedCheckpointManager.ResumeFromCheckpoint (workflow/checkpoint_enhanced.go),
// whose restoration of executor.nodeResults/visitedNodes becomes
// ExecutionState.restore here.
func (e *Engine) Resume(ctx context.Context, resumeData any) (any, error) {
	if e.persistence == nil {
		return nil, fmt.Errorf("engine: no PersistenceLayer configured")
	}
	snap, err := e.persistence.Load(ctx, e.workflowID)
	if err != nil {
		return nil, fmt.Errorf("engine: load snapshot: %w", err)
	}

	e.ctx.Restore(snap.ContextState)
	e.events.SetAllState(snap.EventState)
	e.state.restore(snap.ExecutionData)

	bp := e.state.Breakpoint()
	if bp == nil {
		return nil, fmt.Errorf("engine: no breakpoint to resume from")
	}
	e.state.ClearBreakpoint()
	e.state.ResetTaskCompletion(bp.TaskName)

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	defer cancel()
	return e.executeTask(runCtx, bp.TaskName, resumeData)
}
