package tasks

import (
	"context"
	"fmt"

	"github.com/trendy-design/deep.new/engine"
	"github.com/trendy-design/deep.new/llm"
	"github.com/trendy-design/deep.new/rag"
)

// RetrievalConfig configures a retrieval task: it embeds the query with an
// llm.EmbeddingProvider and searches a rag.VectorStore for the closest
// documents, the Go realization of a RAG retrieval step sitting alongside
// WebSearchTask in the Task Library.
type RetrievalConfig struct {
	Store    rag.VectorStore
	Embedder llm.EmbeddingProvider
	Model    string
	TopK     int
}

// RetrievalTask embeds the pipeline's query, searches cfg.Store for the
// nearest documents, stores them under KeyRetrievedDocs, and emits the
// matches on the "sources" channel the same way WebSearchTask does for web
// results — downstream completion/writer tasks read either channel
// interchangeably via KeySearchResults-style context keys.
func RetrievalTask(cfg RetrievalConfig) engine.HandlerFunc {
	return func(ctx context.Context, p engine.ParamBundle) (any, error) {
		query, _ := engine.Get[string](p.Ctx, KeyQuery)
		if query == "" {
			if s, ok := p.Input.(string); ok {
				query = s
			}
		}
		if cfg.Store == nil {
			return nil, fmt.Errorf("tasks: retrieval: no vector store configured")
		}
		if cfg.Embedder == nil {
			return nil, fmt.Errorf("tasks: retrieval: no embedding provider configured")
		}

		p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusPending})

		embResp, err := cfg.Embedder.CreateEmbedding(ctx, &llm.EmbeddingRequest{
			Model: cfg.Model,
			Input: []string{query},
		})
		if err != nil {
			p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusError})
			return nil, fmt.Errorf("tasks: retrieval: embed query: %w", err)
		}
		if len(embResp.Data) == 0 {
			return nil, fmt.Errorf("tasks: retrieval: embedding provider returned no vectors")
		}

		topK := cfg.TopK
		if topK <= 0 {
			topK = 5
		}

		results, err := cfg.Store.Search(ctx, embResp.Data[0].Embedding, topK)
		if err != nil {
			p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusError})
			return nil, fmt.Errorf("tasks: retrieval: search: %w", err)
		}

		sources := make([]SourceEvent, len(results))
		for i, r := range results {
			sources[i] = SourceEvent{Title: r.Document.ID, Snippet: r.Document.Content}
		}

		engine.Set(p.Ctx, KeyRetrievedDocs, results)
		p.Events.Emit("sources", sources)
		p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusCompleted})

		return results, nil
	}
}
