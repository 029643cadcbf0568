package engine

import (
	"context"
	"time"
)

// ParamBundle is what every registered task receives: the shared typed
// Context, the event bus, the task's own input, and the ctx.Context used
// for cancellation/timeout, mirroring workflow.Step.Execute(ctx, input)'s
// two-argument shape (workflow/workflow.go) but additionally threading the
// Context/EventBus so tasks do not need them injected via context.Value the
// way workflow.WithWorkflowStreamEmitter does.
type ParamBundle struct {
	Ctx      *Context
	Events   *EventBus
	Input    any
	Attempt  int
	TaskName string

	state *ExecutionState
}

// Interrupt pauses the workflow at this task, recording data to be handed
// back to the task on Resume. It always returns ErrBreakpoint; a task's
// handler should return immediately with that error:
//
//	return p.Interrupt(partialResult)
func (p ParamBundle) Interrupt(data any) error {
	p.state.SetBreakpoint(&BreakpointState{TaskName: p.TaskName, Data: data, At: time.Now()})
	return ErrBreakpoint
}

// RoutingDestination describes where execution goes after a task completes.
// It is the typed generalization of workflow.DAGNode.Metadata's
// "on_true"/"on_false" string-slice convention (workflow/dag.go): a task may
// redirect imperatively (via ParamBundle-scoped RedirectTo, handled in
// engine.go), return a RouteResult naming its own destination, or simply
// fall through to the task's statically registered successors.
type RoutingDestination struct {
	// End, when true, stops the workflow after this task (no successors).
	End bool
	// Single names exactly one successor task.
	Single string
	// Multiple fans out to every named successor task in parallel.
	Multiple []string
}

// RouteResult lets a task's handler return both a result value and an
// explicit routing decision in one return, resolved by resolveReturn with
// priority imperative-redirect > RouteResult.Next > statically registered
// router, per SPEC_FULL.md §9's resolution-order decision.
type RouteResult struct {
	Result any
	Next   *RoutingDestination
}

// HandlerFunc is a task's executable body, the engine.Task analog of
// workflow.StepFunc (workflow/workflow.go) generalized to receive the full
// ParamBundle instead of a bare `input any`.
type HandlerFunc func(ctx context.Context, p ParamBundle) (any, error)

// Router picks a task's successor dynamically from its result, the engine
// analog of workflow.Router (workflow/routing.go) but operating on a task's
// return value rather than the workflow's original input.
type Router func(ctx context.Context, result any) (*RoutingDestination, error)

// TaskDef is a registered task: its handler, static dependencies, and
// optional retry/timeout overrides and router. Dependencies generalize
// workflow.DAGGraph's edges (workflow/dag.go) from "who may run after me" to
// "who must complete before me".
type TaskDef struct {
	Name         string
	Handler      HandlerFunc
	Dependencies []string
	Router       Router
	Successors   []string // static fallback when Router and RouteResult.Next are both absent

	// MaxRetries is a pointer so PolicyFromTaskDef can tell an explicit
	// MaxRetries: IntPtr(0) (exactly one attempt, no retries) apart from an
	// unset field (nil, falls back to DefaultRetryPolicy's MaxRetries). A
	// plain int can't carry that distinction since both "unset" and
	// "explicitly zero" are the same zero value.
	MaxRetries           *int
	TimeoutMs            int
	RetryDelayMs         int
	RetryDelayMultiplier float64
}

// IntPtr returns a pointer to the given int, for TaskDef.MaxRetries
// literals.
func IntPtr(i int) *int { return &i }
