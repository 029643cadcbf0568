package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/trendy-design/deep.new/engine"
	"github.com/trendy-design/deep.new/llm"
)

// RefineQueryConfig configures a refine-query task.
type RefineQueryConfig struct {
	Provider    llm.Provider
	Model       string
	Temperature float32
}

// RefineQueryTask rewrites the original query using the analyzer's recorded
// gaps, overwriting KeyQuery so a subsequent web-search/writer pass searches
// and drafts against a sharper question. Typically wired as the ReviseTo
// destination of a ReflectorTask whose revision loop needs a better query
// rather than just another draft attempt.
func RefineQueryTask(cfg RefineQueryConfig) engine.HandlerFunc {
	return func(ctx context.Context, p engine.ParamBundle) (any, error) {
		query, _ := engine.Get[string](p.Ctx, KeyQuery)
		analysis, _ := engine.Get[Analysis](p.Ctx, KeyAnalysis)

		if len(analysis.Gaps) == 0 {
			return query, nil
		}

		p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusPending})

		req := &llm.ChatRequest{
			Model: cfg.Model,
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: "Rewrite the search query to address the listed gaps. Reply with only the rewritten query, no commentary."},
				{Role: llm.RoleUser, Content: fmt.Sprintf("Original query:\n%s\n\nGaps to address:\n- %s", query, strings.Join(analysis.Gaps, "\n- "))},
			},
			Temperature: cfg.Temperature,
		}

		resp, err := cfg.Provider.Completion(ctx, req)
		if err != nil {
			p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusError})
			return nil, fmt.Errorf("tasks: refine-query completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("tasks: refine-query: empty response")
		}

		refined := strings.TrimSpace(resp.Choices[0].Message.Content)
		engine.Set(p.Ctx, KeyQuery, refined)
		p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusCompleted})

		return refined, nil
	}
}
