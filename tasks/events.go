// Package tasks is the Task Library: concrete workflow tasks (completion,
// planning, web-search, writer, analyzer, reflector, refine-query,
// suggestions) built atop package engine and package agentgraph, grounded on
// agent.BaseAgent.Execute/Plan (agent/base.go) and the llm/tools ReAct loop
// (llm/tools/react.go).
package tasks

import "time"

// Status mirrors the outer-layer status vocabulary spec.md §6 names.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusError     Status = "ERROR"
)

// AnswerEvent is the payload for the "answer" channel: the assembled answer
// text so far, plus the final text once status reaches StatusCompleted.
type AnswerEvent struct {
	Text      string `json:"text"`
	FinalText string `json:"finalText,omitempty"`
	Status    Status `json:"status"`
}

// SubStep is one named sub-step of a StepEvent, e.g. "reasoning".
type SubStep struct {
	Data   string `json:"data,omitempty"`
	Status Status `json:"status"`
}

// StepEvent is the payload for the "step" channel: one pipeline stage's
// status plus any named sub-steps it ran (e.g. a reasoning pre-step).
type StepEvent struct {
	StepID     string             `json:"stepId"`
	StepStatus Status             `json:"stepStatus"`
	SubSteps   map[string]SubStep `json:"subSteps,omitempty"`
}

// SourceEvent is one entry of the "sources" channel's list payload.
type SourceEvent struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// TaskExecutionEvent is the payload for the "taskExecution" channel, fired
// once per task completion with its cumulative execution count.
type TaskExecutionEvent struct {
	TaskName string `json:"taskName"`
	Count    int    `json:"count"`
}

// elapsed is a small helper the LLM-calling tasks use to stamp how long a
// call took, matching agent.Output.Duration's role in agent/base.go.
func elapsed(start time.Time) time.Duration { return time.Since(start) }
