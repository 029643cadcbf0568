package tasks

import (
	"context"
	"fmt"

	"github.com/trendy-design/deep.new/engine"
	"github.com/trendy-design/deep.new/llm/tools"
)

// WebSearchConfig configures a web-search task.
type WebSearchConfig struct {
	Provider tools.WebSearchProvider
	Options  tools.WebSearchOptions
}

// WebSearchTask runs a web search for the task's query, stores the raw
// results under KeySearchResults, and emits them on the "sources" channel —
// directly reusing llm/tools/web_search.go's WebSearchProvider/WebSearchResult
// rather than re-deriving a search abstraction, per SPEC_FULL §6's note that
// the web-search tool itself is out of core scope but its registry contract
// is in scope.
func WebSearchTask(cfg WebSearchConfig) engine.HandlerFunc {
	return func(ctx context.Context, p engine.ParamBundle) (any, error) {
		query, _ := engine.Get[string](p.Ctx, KeyQuery)
		if query == "" {
			if s, ok := p.Input.(string); ok {
				query = s
			}
		}
		if cfg.Provider == nil {
			return nil, fmt.Errorf("tasks: web search: no provider configured")
		}

		p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusPending})

		opts := cfg.Options
		if opts.MaxResults == 0 {
			opts = tools.DefaultWebSearchOptions()
		}

		results, err := cfg.Provider.Search(ctx, query, opts)
		if err != nil {
			p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusError})
			return nil, fmt.Errorf("tasks: web search: %w", err)
		}

		sources := make([]SourceEvent, len(results))
		for i, r := range results {
			sources[i] = SourceEvent{Title: r.Title, Link: r.URL, Snippet: r.Snippet}
		}

		engine.Set(p.Ctx, KeySearchResults, results)
		p.Events.Emit("sources", sources)
		p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusCompleted})

		return results, nil
	}
}
