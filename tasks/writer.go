package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/trendy-design/deep.new/engine"
	"github.com/trendy-design/deep.new/llm"
	"github.com/trendy-design/deep.new/llm/tools"
)

// WriterConfig configures a writer task.
type WriterConfig struct {
	Provider     llm.Provider
	Model        string
	Temperature  float32
	SystemPrompt string
}

// WriterTask drafts an answer from the query, the plan (if any), and any
// search results gathered so far, storing the draft under KeyDraft. It is
// the task a sequential or reduce edge typically routes into once planning
// and web-search have produced their inputs.
func WriterTask(cfg WriterConfig) engine.HandlerFunc {
	return func(ctx context.Context, p engine.ParamBundle) (any, error) {
		query, _ := engine.Get[string](p.Ctx, KeyQuery)
		plan, _ := engine.Get[Plan](p.Ctx, KeyPlan)
		results, _ := engine.Get[[]tools.WebSearchResult](p.Ctx, KeySearchResults)

		var b strings.Builder
		b.WriteString("Request:\n")
		b.WriteString(query)
		if len(plan.Steps) > 0 {
			b.WriteString("\n\nPlan:\n")
			for i, step := range plan.Steps {
				fmt.Fprintf(&b, "%d. %s\n", i+1, step)
			}
		}
		if len(results) > 0 {
			b.WriteString("\nSources:\n")
			for _, r := range results {
				fmt.Fprintf(&b, "- %s: %s\n", r.Title, r.Snippet)
			}
		}

		p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusPending})

		systemPrompt := cfg.SystemPrompt
		if systemPrompt == "" {
			systemPrompt = "Write a clear, well-organized answer to the request using the plan and sources provided, if any."
		}
		req := &llm.ChatRequest{
			Model: cfg.Model,
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: systemPrompt},
				{Role: llm.RoleUser, Content: b.String()},
			},
			Temperature: cfg.Temperature,
		}

		resp, err := cfg.Provider.Completion(ctx, req)
		if err != nil {
			p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusError})
			return nil, fmt.Errorf("tasks: writer completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("tasks: writer: empty response")
		}

		draft := resp.Choices[0].Message.Content
		engine.Set(p.Ctx, KeyDraft, draft)
		p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusCompleted})

		return draft, nil
	}
}
