package agentgraph

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// PatternHandler implements one edge pattern's traversal semantics over a
// group of outgoing edges that share that pattern at the current node. It
// receives the source node's response and the accumulating responses list,
// and returns the final response string that propagates outward, per
// spec.md §4.8.
type PatternHandler func(ctx context.Context, g *Graph, edges []Edge, response string, responses *[]string) (string, error)

// patternHandlers is the registry ExecuteNode dispatches through,
// generalizing workflow.DAGExecutor's type-switch over NodeType
// (workflow/dag_executor.go) into a pattern-keyed map so new patterns can be
// added without touching the traversal loop.
var patternHandlers = map[Pattern]PatternHandler{
	PatternSequential: handleSequential,
	PatternParallel:   handleParallel,
	PatternCondition:  handleCondition,
	PatternMap:        handleMap,
	PatternReduce:     handleReduce,
	PatternLoop:       handleLoop,
	PatternRevision:   handleRevision,
}

// withFallback runs fn; on error, if edge names a fallback node it routes
// there instead of propagating the error, otherwise it rethrows. Every
// handler below wraps its per-edge invocation in this, so one failing
// destination cannot abort the rest of the traversal.
func withFallback(ctx context.Context, g *Graph, edge Edge, responses *[]string, fn func() (string, error)) (string, error) {
	out, err := fn()
	if err == nil {
		return out, nil
	}
	if edge.Config.Fallback == "" {
		return out, err
	}
	return g.ExecuteNode(ctx, edge.Config.Fallback, out, responses)
}

// shouldStop evaluates a loop/revision edge's stop condition, if any. A nil
// StopCondition never halts early.
func shouldStop(cfg EdgeConfig, response string) (bool, error) {
	if cfg.StopCondition == nil {
		return false, nil
	}
	return cfg.StopCondition(response)
}

func combineOutputs(cfg EdgeConfig, outputs []string, join string) (string, error) {
	if cfg.OutputTransform != nil {
		return cfg.OutputTransform(outputs)
	}
	return strings.Join(outputs, join), nil
}

// handleSequential sorts edges by Config.Priority ascending and executes
// destinations in that order, each seeing the same source response. Returns
// the source response unchanged.
func handleSequential(ctx context.Context, g *Graph, edges []Edge, response string, responses *[]string) (string, error) {
	sorted := make([]Edge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Config.Priority < sorted[j].Config.Priority })

	for _, edge := range sorted {
		if _, err := withFallback(ctx, g, edge, responses, func() (string, error) {
			return g.ExecuteNode(ctx, edge.To, response, responses)
		}); err != nil {
			return response, err
		}
	}
	return response, nil
}

// handleParallel executes every destination concurrently with the same
// source response, generalizing workflow.ParallelWorkflow.Execute's
// channel/WaitGroup fan-out (workflow/parallel.go) to graph edges. Returns
// the source response unchanged.
func handleParallel(ctx context.Context, g *Graph, edges []Edge, response string, responses *[]string) (string, error) {
	errCh := make(chan error, len(edges))
	for _, edge := range edges {
		go func(e Edge) {
			_, err := withFallback(ctx, g, e, nil, func() (string, error) {
				return g.ExecuteNode(ctx, e.To, response, nil)
			})
			errCh <- err
		}(edge)
	}

	var firstErr error
	for i := 0; i < len(edges); i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return response, firstErr
}

// handleCondition evaluates each edge's Condition against {response,state}
// and executes only the destinations whose condition is true.
func handleCondition(ctx context.Context, g *Graph, edges []Edge, response string, responses *[]string) (string, error) {
	for _, edge := range edges {
		if edge.Config.Condition == nil {
			continue
		}
		ok, err := edge.Config.Condition(response, g.state)
		if err != nil {
			return response, err
		}
		if !ok {
			continue
		}
		if _, err := withFallback(ctx, g, edge, responses, func() (string, error) {
			return g.ExecuteNode(ctx, edge.To, response, responses)
		}); err != nil {
			return response, err
		}
	}
	return response, nil
}

// handleMap optionally splits the source response into elements via
// InputTransform, runs the destination once per element concurrently, and
// combines the per-element outputs via OutputTransform or newline-join,
// recording the combined string as the destination's own result.
func handleMap(ctx context.Context, g *Graph, edges []Edge, response string, responses *[]string) (string, error) {
	var final string
	for _, edge := range edges {
		elements := []string{response}
		if edge.Config.InputTransform != nil {
			transformed, err := edge.Config.InputTransform(response)
			if err != nil {
				return response, err
			}
			elements = transformed
		}

		outputs := make([]string, len(elements))
		errs := make([]error, len(elements))
		var wg sync.WaitGroup
		for i, elem := range elements {
			wg.Add(1)
			go func(idx int, input string) {
				defer wg.Done()
				out, err := withFallback(ctx, g, edge, nil, func() (string, error) {
					return g.runNodeOnly(ctx, edge.To, input)
				})
				outputs[idx] = out
				errs[idx] = err
			}(i, elem)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return response, err
			}
		}

		combined, err := combineOutputs(edge.Config, outputs, "\n")
		if err != nil {
			return response, err
		}
		g.state.recordResult(edge.To, combined, "completed")
		if responses != nil {
			*responses = append(*responses, combined)
		}
		final = combined
	}
	return final, nil
}

// handleReduce gathers the responses of every predecessor of the
// destination node, combines them via OutputTransform or newline-join, and
// runs the destination once with the combined input. Per SPEC_FULL §9's
// decision, this does not wait on any predecessor still in flight: it reads
// whatever is already in GraphState.Results at the moment the reduce edge
// fires, the same best-effort snapshot semantics
// workflow.DAGExecutor.resolveNextNodes uses when checking node readiness.
func handleReduce(ctx context.Context, g *Graph, edges []Edge, response string, responses *[]string) (string, error) {
	var final string
	for _, edge := range edges {
		predecessors := g.GetInputNodes(edge.To)
		outputs := make([]string, 0, len(predecessors))
		for _, pred := range predecessors {
			if out, ok := g.state.Result(pred.From); ok {
				outputs = append(outputs, out)
			}
		}
		if len(outputs) == 0 {
			outputs = []string{response}
		}

		combined, err := combineOutputs(edge.Config, outputs, "\n")
		if err != nil {
			return response, err
		}

		out, err := withFallback(ctx, g, edge, responses, func() (string, error) {
			return g.runNodeOnly(ctx, edge.To, combined)
		})
		if err != nil {
			return response, err
		}
		if responses != nil {
			*responses = append(*responses, out)
		}
		final = out
	}
	return final, nil
}

// handleLoop iterates between edge.From (the current node) and edge.To up to
// MaxIterations: each iteration runs To on the current input, then runs From
// on To's output to produce the next iteration's input, halting early if
// StopCondition fires on To's output. All iteration outputs of To are
// combined via OutputTransform or double-newline join; both endpoints are
// marked completed on exit, mirroring
// workflow.DAGExecutor.executeLoopNode's delete-then-reexecute cycle
// (workflow/dag_executor.go) bounded by config.MaxIterations instead of an
// unbounded while. MaxIterations<=0 runs neither node and passes response
// through unchanged — a configured-off loop must not call through either.
func handleLoop(ctx context.Context, g *Graph, edges []Edge, response string, responses *[]string) (string, error) {
	var final string
	for _, edge := range edges {
		maxIter := edge.Config.MaxIterations
		if maxIter <= 0 {
			final = response
			if responses != nil {
				*responses = append(*responses, response)
			}
			continue
		}

		current := response
		outputs := make([]string, 0, maxIter)
		for i := 0; i < maxIter; i++ {
			toOut, err := withFallback(ctx, g, edge, nil, func() (string, error) {
				return g.runNodeOnly(ctx, edge.To, current)
			})
			if err != nil {
				return response, err
			}
			outputs = append(outputs, toOut)

			stop, err := shouldStop(edge.Config, toOut)
			if err != nil {
				return response, err
			}
			if stop {
				current = toOut
				break
			}

			fromOut, err := g.runNodeOnly(ctx, edge.From, toOut)
			if err != nil {
				return response, err
			}
			current = fromOut
		}

		combined, err := combineOutputs(edge.Config, outputs, "\n\n")
		if err != nil {
			return response, err
		}
		g.state.markCompleted(edge.From)
		g.state.markCompleted(edge.To)
		if responses != nil {
			*responses = append(*responses, combined)
		}
		final = combined
	}
	return final, nil
}

// handleRevision repeatedly calls the destination with a prompt built from
// the previous response via RevisionPrompt, up to MaxIterations, halting on
// StopCondition. The last output produced is the final response.
// MaxIterations<=0 never calls the destination and passes response through
// unchanged.
func handleRevision(ctx context.Context, g *Graph, edges []Edge, response string, responses *[]string) (string, error) {
	var final string
	for _, edge := range edges {
		maxIter := edge.Config.MaxIterations
		if maxIter <= 0 {
			final = response
			if responses != nil {
				*responses = append(*responses, response)
			}
			continue
		}

		current := response
		var last string
		for i := 0; i < maxIter; i++ {
			prompt := current
			if edge.Config.RevisionPrompt != nil {
				built, err := edge.Config.RevisionPrompt(current, g.state)
				if err != nil {
					return response, err
				}
				prompt = built
			}

			out, err := withFallback(ctx, g, edge, nil, func() (string, error) {
				return g.runNodeOnly(ctx, edge.To, prompt)
			})
			if err != nil {
				return response, err
			}
			last = out

			stop, err := shouldStop(edge.Config, out)
			if err != nil {
				return response, err
			}
			if stop {
				break
			}
			current = out
		}

		if responses != nil {
			*responses = append(*responses, last)
		}
		final = last
	}
	return final, nil
}
