package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/trendy-design/deep.new/engine"
	"github.com/trendy-design/deep.new/llm"
)

// CompletionConfig configures a completion task.
type CompletionConfig struct {
	Provider     llm.Provider
	Model        string
	SystemPrompt string
	Temperature  float32
	// MaxPromptTokens budgets the prompt before the provider call, trimming
	// the oldest messages first once the budget is exceeded — the same role
	// llm/tokenizer.TiktokenTokenizer plays ahead of a provider call in the
	// teacher, generalized here to a single task instead of every agent call.
	MaxPromptTokens int
	// Encoding names the tiktoken encoding to budget against; "cl100k_base"
	// when empty, matching llm/tokenizer.TiktokenTokenizer's OpenAI default.
	Encoding string
}

// CompletionTask streams a chat completion for the task's input, batching
// deltas through an engine.ChunkBuffer and emitting them on the "answer"
// channel, per SPEC_FULL §4.3's chunk-buffer-to-answer-event pipeline.
func CompletionTask(cfg CompletionConfig) engine.HandlerFunc {
	encodingName := cfg.Encoding
	if encodingName == "" {
		encodingName = "cl100k_base"
	}

	return func(ctx context.Context, p engine.ParamBundle) (any, error) {
		query, _ := engine.Get[string](p.Ctx, KeyQuery)
		if query == "" {
			if s, ok := p.Input.(string); ok {
				query = s
			}
		}

		messages := []llm.Message{
			{Role: llm.RoleSystem, Content: cfg.SystemPrompt},
			{Role: llm.RoleUser, Content: query},
		}
		messages = budgetMessages(messages, cfg.MaxPromptTokens, encodingName)

		p.Events.Emit("status", StatusPending)
		p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusPending})
		p.Events.Emit("answer", AnswerEvent{Text: "", Status: StatusPending})

		req := &llm.ChatRequest{
			Model:       cfg.Model,
			Messages:    messages,
			Temperature: cfg.Temperature,
		}

		start := time.Now()
		chunks, err := cfg.Provider.Stream(ctx, req)
		if err != nil {
			p.Events.Emit("status", StatusError)
			return nil, fmt.Errorf("tasks: completion stream: %w", err)
		}

		buf := engine.NewChunkBuffer(func(chunk, full string) {
			p.Events.Emit("answer", AnswerEvent{Text: full, Status: StatusPending})
		}, engine.WithThreshold(64), engine.WithDelimiters("\n", ". "))

		for c := range chunks {
			if c.Err != nil {
				p.Events.Emit("status", StatusError)
				return nil, fmt.Errorf("tasks: completion chunk: %w", c.Err)
			}
			if c.Delta.Content != "" {
				buf.Write(c.Delta.Content)
			}
		}
		buf.End()

		final := buf.Full()
		engine.Set(p.Ctx, KeyFinalAnswer, final)
		p.Events.Emit("answer", AnswerEvent{Text: final, FinalText: final, Status: StatusCompleted})
		p.Events.Emit("step", StepEvent{StepID: p.TaskName, StepStatus: StatusCompleted})
		p.Events.Emit("status", StatusCompleted)
		_ = elapsed(start)

		return final, nil
	}
}

// budgetMessages trims the oldest non-system messages until the request fits
// within maxTokens, mirroring llm/tokenizer.TiktokenTokenizer's role ahead of
// a provider call. maxTokens <= 0 disables budgeting.
func budgetMessages(messages []llm.Message, maxTokens int, encodingName string) []llm.Message {
	if maxTokens <= 0 {
		return messages
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return messages
	}

	count := func(msgs []llm.Message) int {
		total := 0
		for _, m := range msgs {
			total += len(enc.Encode(m.Content, nil, nil))
		}
		return total
	}

	trimmed := messages
	for len(trimmed) > 1 && count(trimmed) > maxTokens {
		// Drop the oldest non-system message (index 1 if a system prompt
		// occupies index 0, else index 0).
		dropAt := 0
		if trimmed[0].Role == llm.RoleSystem && len(trimmed) > 1 {
			dropAt = 1
		}
		trimmed = append(trimmed[:dropAt], trimmed[dropAt+1:]...)
	}
	return trimmed
}
