package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/trendy-design/deep.new/engine"
	"github.com/trendy-design/deep.new/llm"
)

// SuggestionsConfig configures a suggestions task.
type SuggestionsConfig struct {
	Provider    llm.Provider
	Model       string
	Temperature float32
	Count       int
}

// SuggestionsTask is typically the terminal task of a workflow: it asks the
// provider for a short list of follow-up questions based on the final
// answer and emits them as the answer event's metadata, rather than as a
// separate channel, since spec.md §6 lists no dedicated suggestions
// channel.
func SuggestionsTask(cfg SuggestionsConfig) engine.HandlerFunc {
	count := cfg.Count
	if count <= 0 {
		count = 3
	}

	return func(ctx context.Context, p engine.ParamBundle) (any, error) {
		final, _ := engine.Get[string](p.Ctx, KeyFinalAnswer)
		if final == "" {
			final, _ = engine.Get[string](p.Ctx, KeyDraft)
		}

		req := &llm.ChatRequest{
			Model: cfg.Model,
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: fmt.Sprintf("Suggest %d short follow-up questions a reader of this answer might ask next. One per line, no numbering.", count)},
				{Role: llm.RoleUser, Content: final},
			},
			Temperature: cfg.Temperature,
		}

		resp, err := cfg.Provider.Completion(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("tasks: suggestions completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, nil
		}

		var suggestions []string
		for _, line := range strings.Split(resp.Choices[0].Message.Content, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				suggestions = append(suggestions, line)
			}
		}

		p.Events.Emit("answer", AnswerEvent{Text: final, FinalText: final, Status: StatusCompleted})
		p.Events.Emit("taskExecution", TaskExecutionEvent{TaskName: p.TaskName, Count: 1})

		return suggestions, nil
	}
}
