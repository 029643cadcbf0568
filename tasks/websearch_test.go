package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendy-design/deep.new/engine"
	"github.com/trendy-design/deep.new/llm/tools"
)

type fakeSearchProvider struct {
	searchFn func(ctx context.Context, query string, opts tools.WebSearchOptions) ([]tools.WebSearchResult, error)
}

func (f *fakeSearchProvider) Search(ctx context.Context, query string, opts tools.WebSearchOptions) ([]tools.WebSearchResult, error) {
	return f.searchFn(ctx, query, opts)
}

func (f *fakeSearchProvider) Name() string { return "fake-search" }

func TestWebSearchTask_EmitsSourcesAndStoresResults(t *testing.T) {
	t.Parallel()
	provider := &fakeSearchProvider{
		searchFn: func(ctx context.Context, query string, opts tools.WebSearchOptions) ([]tools.WebSearchResult, error) {
			assert.Equal(t, "go generics", query)
			return []tools.WebSearchResult{{Title: "Go Generics", URL: "https://go.dev", Snippet: "intro"}}, nil
		},
	}
	task := WebSearchTask(WebSearchConfig{Provider: provider})

	p, ctx, events := newBundle("search", "go generics")
	var sources []SourceEvent
	events.On("sources", func(payload any) {
		if s, ok := payload.([]SourceEvent); ok {
			sources = s
		}
	})

	_, err := task(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "Go Generics", sources[0].Title)

	stored, ok := engine.Get[[]tools.WebSearchResult](ctx, KeySearchResults)
	require.True(t, ok)
	require.Len(t, stored, 1)
}

func TestWebSearchTask_NoProviderErrors(t *testing.T) {
	t.Parallel()
	task := WebSearchTask(WebSearchConfig{})
	p, _, _ := newBundle("search", "query")

	_, err := task(context.Background(), p)
	assert.Error(t, err)
}

func TestWebSearchTask_SearchErrorPropagates(t *testing.T) {
	t.Parallel()
	provider := &fakeSearchProvider{
		searchFn: func(ctx context.Context, query string, opts tools.WebSearchOptions) ([]tools.WebSearchResult, error) {
			return nil, errors.New("rate limited")
		},
	}
	task := WebSearchTask(WebSearchConfig{Provider: provider})
	p, _, _ := newBundle("search", "query")

	_, err := task(context.Background(), p)
	assert.Error(t, err)
}
