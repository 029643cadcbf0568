package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/trendy-design/deep.new/engine"
	"github.com/trendy-design/deep.new/llm"
)

// Plan is the Task Library's planning output, grounded on agent.PlanResult
// (agent/base.go): a numbered list of steps the downstream tasks (writer,
// web-search) should carry out.
type Plan struct {
	Steps []string `json:"steps"`
}

// PlanningConfig configures a planning task.
type PlanningConfig struct {
	Provider    llm.Provider
	Model       string
	Temperature float32
}

// PlanningTask asks the provider to break the query into an ordered list of
// steps and stores the resulting Plan under KeyPlan, emitting a "step" event
// with the raw plan text as its reasoning sub-step — the Go realization of
// agent.Agent.Plan generalized into a standalone task.
func PlanningTask(cfg PlanningConfig) engine.HandlerFunc {
	return func(ctx context.Context, p engine.ParamBundle) (any, error) {
		query, _ := engine.Get[string](p.Ctx, KeyQuery)
		if query == "" {
			if s, ok := p.Input.(string); ok {
				query = s
			}
		}

		p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusPending})

		req := &llm.ChatRequest{
			Model: cfg.Model,
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: "Break the user's request into a short numbered list of concrete steps. Output one step per line, no commentary."},
				{Role: llm.RoleUser, Content: query},
			},
			Temperature: cfg.Temperature,
		}

		resp, err := cfg.Provider.Completion(ctx, req)
		if err != nil {
			p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusError})
			return nil, fmt.Errorf("tasks: planning completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("tasks: planning: empty response")
		}

		plan := Plan{Steps: parseSteps(resp.Choices[0].Message.Content)}
		engine.Set(p.Ctx, KeyPlan, plan)

		p.Events.Emit("step", StepEvent{
			StepID:     p.TaskName,
			StepStatus: StatusCompleted,
			SubSteps: map[string]SubStep{
				"reasoning": {Data: strings.Join(plan.Steps, "\n"), Status: StatusCompleted},
			},
		})

		return plan, nil
	}
}

func parseSteps(text string) []string {
	var steps []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.)- \t")
		if line != "" {
			steps = append(steps, line)
		}
	}
	return steps
}
