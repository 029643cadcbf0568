package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendy-design/deep.new/engine"
	"github.com/trendy-design/deep.new/llm"
)

func TestPlanningTask_ParsesNumberedSteps(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{
		completionFn: func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{Choices: []llm.ChatChoice{{Message: llm.Message{
				Content: "1. Research the topic\n2) Draft an outline\n- Write the answer\n",
			}}}}, nil
		},
	}
	task := PlanningTask(PlanningConfig{Provider: provider})

	p, ctx, _ := newBundle("planning", "write a report")
	result, err := task(context.Background(), p)
	require.NoError(t, err)

	plan, ok := result.(Plan)
	require.True(t, ok)
	assert.Equal(t, []string{"Research the topic", "Draft an outline", "Write the answer"}, plan.Steps)

	stored, ok := engine.Get[Plan](ctx, KeyPlan)
	require.True(t, ok)
	assert.Equal(t, plan, stored)
}

func TestPlanningTask_CompletionErrorPropagates(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{
		completionFn: func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
			return nil, errors.New("down")
		},
	}
	task := PlanningTask(PlanningConfig{Provider: provider})
	p, _, _ := newBundle("planning", "x")

	_, err := task(context.Background(), p)
	assert.Error(t, err)
}

func TestPlanningTask_EmptyChoicesErrors(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{
		completionFn: func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{}, nil
		},
	}
	task := PlanningTask(PlanningConfig{Provider: provider})
	p, _, _ := newBundle("planning", "x")

	_, err := task(context.Background(), p)
	assert.Error(t, err)
}

func TestParseSteps_StripsNumberingAndBullets(t *testing.T) {
	t.Parallel()
	steps := parseSteps("1. one\n2. two\n\n- three\n")
	assert.Equal(t, []string{"one", "two", "three"}, steps)
}
