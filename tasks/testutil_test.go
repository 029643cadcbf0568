package tasks

import (
	"context"

	"github.com/trendy-design/deep.new/engine"
	"github.com/trendy-design/deep.new/llm"
)

// fakeProvider is a deterministic llm.Provider stand-in: completionFn/streamFn
// default to a fixed single-choice response / a closed empty stream when nil.
type fakeProvider struct {
	completionFn func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)
	streamFn     func(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error)
	lastRequest  *llm.ChatRequest
}

func (f *fakeProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	f.lastRequest = req
	if f.completionFn != nil {
		return f.completionFn(ctx, req)
	}
	return &llm.ChatResponse{Choices: []llm.ChatChoice{{Message: llm.Message{Content: "ok"}}}}, nil
}

func (f *fakeProvider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	f.lastRequest = req
	if f.streamFn != nil {
		return f.streamFn(ctx, req)
	}
	ch := make(chan llm.StreamChunk)
	close(ch)
	return ch, nil
}

func (f *fakeProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) SupportsNativeFunctionCalling() bool { return false }

// streamOf builds a closed StreamChunk channel that yields one delta per
// string in deltas, in order.
func streamOf(deltas ...string) (<-chan llm.StreamChunk, error) {
	ch := make(chan llm.StreamChunk, len(deltas))
	for _, d := range deltas {
		ch <- llm.StreamChunk{Delta: llm.Message{Content: d}}
	}
	close(ch)
	return ch, nil
}

// newBundle builds a ParamBundle wired to a fresh Context/EventBus, with the
// given keys pre-registered so tests can Get/Set them the way a real task
// registration (which RegisterKey's each key up front) would.
func newBundle(taskName string, input any) (engine.ParamBundle, *engine.Context, *engine.EventBus) {
	ctx := engine.NewContext()
	events := engine.NewEventBus(nil)
	return engine.ParamBundle{
		Ctx:      ctx,
		Events:   events,
		Input:    input,
		TaskName: taskName,
	}, ctx, events
}
