package agentgraph

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/trendy-design/deep.new/engine"
	"github.com/trendy-design/deep.new/llm"
)

// NodeExecutor runs a node's LLM invocation, the Agent Graph's bridge to an
// llm.Provider, generalizing workflow.AgentExecutor
// (workflow/agent_adapter.go) from an opaque any-in/any-out Execute to the
// two LLM-specific calls the graph needs: a streaming main call and an
// optional reasoning pre-step.
type NodeExecutor interface {
	// Complete runs the node's main LLM invocation, emitting a stream event
	// per chunk as it arrives, and returns the fully assembled text.
	Complete(ctx context.Context, node *Node, prompt string, emit func(chunk, fullText string)) (string, error)
	// Reason runs an auxiliary LLM call that produces a reasoning trace,
	// invoked ahead of Complete only when node.EnableReasoning is set.
	Reason(ctx context.Context, node *Node, input string) (string, error)
}

// ProviderExecutor adapts an llm.Provider into a NodeExecutor, the concrete
// counterpart to workflow.NativeAgentAdapter: where that type bridges
// agent.Agent's *Input/*Output pair into AgentExecutor's any-in/any-out
// shape, this bridges llm.Provider's ChatRequest/StreamChunk pair into the
// graph's prompt-in/text-out shape.
type ProviderExecutor struct {
	provider llm.Provider
	logger   *zap.Logger
}

// NewProviderExecutor creates a NodeExecutor backed by an llm.Provider.
func NewProviderExecutor(provider llm.Provider, logger *zap.Logger) *ProviderExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderExecutor{provider: provider, logger: logger.With(zap.String("component", "agentgraph_executor"))}
}

// Complete streams a chat completion for node's system prompt plus the
// caller's prompt, invoking emit(chunk, fullText) in stream order — the Go
// realization of spec.md §6's generateText onChunk callback contract.
func (p *ProviderExecutor) Complete(ctx context.Context, node *Node, prompt string, emit func(chunk, fullText string)) (string, error) {
	req := ChatRequestFor(node, prompt)

	chunks, err := p.provider.Stream(ctx, &req)
	if err != nil {
		return "", fmt.Errorf("agentgraph: stream node %q: %w", node.Name, err)
	}

	var b strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			return b.String(), fmt.Errorf("agentgraph: stream chunk error on node %q: %w", node.Name, chunk.Err)
		}
		if chunk.Delta.Content != "" {
			b.WriteString(chunk.Delta.Content)
			if emit != nil {
				emit(chunk.Delta.Content, b.String())
			}
		}
	}
	return b.String(), nil
}

// Reason issues a non-streaming completion whose system prompt asks the
// model to think through the input before answering, the auxiliary call
// spec.md §4.7's processReasoningStep names.
func (p *ProviderExecutor) Reason(ctx context.Context, node *Node, input string) (string, error) {
	req := &llm.ChatRequest{
		Model: node.Role,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "Think step by step about the following before responding. Output only your reasoning."},
			{Role: llm.RoleUser, Content: input},
		},
		Temperature: node.Temperature,
	}
	resp, err := p.provider.Completion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("agentgraph: reasoning step for node %q: %w", node.Name, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatRequestFor builds the ChatRequest for a node's main invocation from
// its SystemPrompt and the traversal-supplied prompt.
func ChatRequestFor(node *Node, prompt string) llm.ChatRequest {
	return llm.ChatRequest{
		Model: node.Role,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: node.SystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		Temperature: node.Temperature,
	}
}

// runNodeOnly runs a single node's reasoning-then-completion pipeline and
// records the result, without traversing its outgoing edges. Loop, revision,
// map, and reduce handlers call this directly instead of ExecuteNode so that
// a loop edge's repeated re-entry into its own "from" node does not also
// re-trigger that node's outgoing edges on every iteration — the same
// controlled-re-entry intent behind
// ExecutionState.ResetTaskCompletion/DAGExecutor.executeLoopNode's
// delete(visitedNodes, id), applied here to avoid runaway recursive fan-out
// instead of to allow a bounded re-run.
func (g *Graph) runNodeOnly(ctx context.Context, nodeName, input string) (string, error) {
	node, ok := g.GetNode(nodeName)
	if !ok {
		return "", fmt.Errorf("agentgraph: unknown node %q", nodeName)
	}

	g.state.recordStart(nodeName, input)
	g.emitStatus(nodeName, "pending")

	prompt := input
	if node.EnableReasoning {
		reasoning, err := g.executor.Reason(ctx, node, input)
		if err != nil {
			g.state.recordResult(nodeName, "", "failed")
			g.emitStatus(nodeName, "failed")
			return "", err
		}
		g.state.recordReasoning(nodeName, reasoning)
		g.emitStatus(nodeName, "reasoning")
		prompt = fmt.Sprintf("Reasoning:\n%s\n\nInput:\n%s", reasoning, input)
	}

	output, err := g.executor.Complete(ctx, node, prompt, func(chunk, fullText string) {
		if g.events != nil {
			g.events.Emit("agentgraph:"+nodeName+":chunk", map[string]string{"chunk": chunk, "full_text": fullText})
		}
	})
	if err != nil {
		g.state.recordResult(nodeName, output, "failed")
		g.emitStatus(nodeName, "failed")
		return output, err
	}

	g.state.recordResult(nodeName, output, "completed")
	g.emitStatus(nodeName, "completed")
	return output, nil
}

func (g *Graph) emitStatus(nodeName, status string) {
	if g.events == nil {
		return
	}
	g.events.Emit("agentgraph:"+nodeName+":status", status)
}

// ExecuteNode runs nodeName's reasoning/completion pipeline via runNodeOnly,
// appends the result to responses, then traverses nodeName's outgoing edges
// grouped by pattern — the full algorithm spec.md §4.7's executeNode
// describes. It is the entry point callers (and every pattern handler that
// wants full traversal rather than a single contained run) should use.
func (g *Graph) ExecuteNode(ctx context.Context, nodeName, input string, responses *[]string) (string, error) {
	output, err := g.runNodeOnly(ctx, nodeName, input)
	if err != nil {
		return output, err
	}
	if responses != nil {
		*responses = append(*responses, output)
	}

	edges := g.outgoingEdges(nodeName)
	if len(edges) == 0 {
		return output, nil
	}

	final := output
	for pattern, group := range groupByPattern(edges) {
		handler, ok := patternHandlers[pattern]
		if !ok {
			return final, fmt.Errorf("agentgraph: no handler registered for pattern %q", pattern)
		}
		result, err := handler(ctx, g, group, output, responses)
		if err != nil {
			return final, err
		}
		final = result
	}
	return final, nil
}
