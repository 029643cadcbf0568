package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/trendy-design/deep.new/engine"
	"github.com/trendy-design/deep.new/llm"
)

// Analysis is the analyzer task's structured output: a 0-100 quality score
// plus free-form critique text, consumed by the reflector and refine-query
// tasks to decide whether another revision pass is warranted.
type Analysis struct {
	Score    int      `json:"score"`
	Critique string   `json:"critique"`
	Gaps     []string `json:"gaps,omitempty"`
}

// AnalyzerConfig configures an analyzer task.
type AnalyzerConfig struct {
	Provider    llm.Provider
	Model       string
	Temperature float32
}

// AnalyzerTask scores the current draft against the original query,
// recording the result under KeyAnalysis for the reflector/refine-query
// tasks to consume. It is the Task Library's stand-in for
// agent.Config.EnableReflection's opaque reflectionExecutor hook in
// agent/base.go, made a concrete, inspectable task here.
func AnalyzerTask(cfg AnalyzerConfig) engine.HandlerFunc {
	return func(ctx context.Context, p engine.ParamBundle) (any, error) {
		query, _ := engine.Get[string](p.Ctx, KeyQuery)
		draft, _ := engine.Get[string](p.Ctx, KeyDraft)
		if draft == "" {
			if s, ok := p.Input.(string); ok {
				draft = s
			}
		}

		p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusPending})

		req := &llm.ChatRequest{
			Model: cfg.Model,
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: "Score the draft's quality for answering the request, 0-100. Reply on the first line with just the number, then a short critique, then any gaps as a dash-prefixed list."},
				{Role: llm.RoleUser, Content: fmt.Sprintf("Request:\n%s\n\nDraft:\n%s", query, draft)},
			},
			Temperature: cfg.Temperature,
		}

		resp, err := cfg.Provider.Completion(ctx, req)
		if err != nil {
			p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusError})
			return nil, fmt.Errorf("tasks: analyzer completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("tasks: analyzer: empty response")
		}

		analysis := parseAnalysis(resp.Choices[0].Message.Content)
		engine.Set(p.Ctx, KeyAnalysis, analysis)
		p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusCompleted})

		return analysis, nil
	}
}

func parseAnalysis(text string) Analysis {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 0 {
		return Analysis{}
	}

	score, _ := strconv.Atoi(strings.TrimSpace(lines[0]))
	var critique strings.Builder
	var gaps []string
	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") {
			gaps = append(gaps, strings.TrimSpace(strings.TrimPrefix(trimmed, "-")))
			continue
		}
		if trimmed != "" {
			if critique.Len() > 0 {
				critique.WriteString(" ")
			}
			critique.WriteString(trimmed)
		}
	}
	return Analysis{Score: score, Critique: critique.String(), Gaps: gaps}
}
