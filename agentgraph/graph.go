// Package agentgraph is the Agent Graph Executor: a node-and-edge traversal
// layer built on top of package engine, dispatching outgoing edges to
// pattern-specific handlers (sequential, parallel, condition, map, reduce,
// loop, revision). It generalizes workflow.DAGGraph/DAGExecutor
// (workflow/dag.go, workflow/dag_executor.go) from a fixed NodeType switch
// over one edge per destination to a named pattern registry where a node can
// fan out through several edges sharing a pattern at once.
package agentgraph

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/trendy-design/deep.new/engine"
)

// Node encapsulates a prompt template and LLM invocation policy, the Agent
// Graph analog of a DAGNode but scoped to single-LLM-call semantics rather
// than DAGNode's arbitrary action/condition/loop/parallel types (those
// control-flow shapes live in Edge.Pattern here instead).
type Node struct {
	Name            string
	Role            string
	SystemPrompt    string
	Temperature     float32
	ToolSteps       int
	EnableReasoning bool
	IsStep          bool
}

// Pattern identifies an edge's control-flow semantics.
type Pattern string

const (
	PatternSequential Pattern = "sequential"
	PatternParallel   Pattern = "parallel"
	PatternCondition  Pattern = "condition"
	PatternMap        Pattern = "map"
	PatternReduce     Pattern = "reduce"
	PatternLoop       Pattern = "loop"
	PatternRevision   Pattern = "revision"
)

// ConditionFunc decides whether a condition edge fires.
type ConditionFunc func(response string, state *GraphState) (bool, error)

// TransformFunc turns one response into several inputs (map's
// InputTransform) or combines several outputs into one (map/reduce/loop's
// OutputTransform).
type InputTransformFunc func(response string) ([]string, error)
type OutputTransformFunc func(outputs []string) (string, error)

// StopConditionFunc halts a loop or revision edge early.
type StopConditionFunc func(response string) (bool, error)

// RevisionPromptFunc builds the next revision prompt from the previous
// response.
type RevisionPromptFunc func(response string, state *GraphState) (string, error)

// EdgeConfig is the pattern-specific configuration union spec.md §4.8
// describes per pattern. Only the fields relevant to an edge's Pattern are
// read by its handler; SPEC_FULL §9 notes that the live closures here
// (Condition, InputTransform, OutputTransform, StopCondition,
// RevisionPrompt) are not serializable and so are kept live in memory only —
// a breakpoint cannot resume mid-graph-traversal, only mid-task.
type EdgeConfig struct {
	Priority        int
	Condition       ConditionFunc
	InputTransform  InputTransformFunc
	OutputTransform OutputTransformFunc
	MaxIterations   int
	StopCondition   StopConditionFunc
	RevisionPrompt  RevisionPromptFunc
	Fallback        string
}

// Edge is a directed, pattern-typed connection between two nodes.
type Edge struct {
	From    string
	To      string
	Pattern Pattern
	Config  EdgeConfig
}

// NodeState is one recorded step of a node's execution, the per-node record
// spec.md §3's "Execution State (graph)" names under nodeStates.
type NodeState struct {
	Name      string
	Input     string
	Output    string
	Reasoning string
	Status    string // pending | reasoning | completed | failed
}

// GraphState is the Agent Graph's execution state: per-node results, the
// completed set, and the ordered nodeStates history. It generalizes
// workflow.ExecutionContext's {NodeResults,Variables} pair
// (workflow/dag.go) into the node-name-keyed results map and history
// sequence spec.md §3 calls for.
type GraphState struct {
	mu         sync.RWMutex
	Results    map[string]string
	completed  map[string]struct{}
	NodeStates []NodeState
}

// NewGraphState creates an empty graph execution state.
func NewGraphState() *GraphState {
	return &GraphState{
		Results:   make(map[string]string),
		completed: make(map[string]struct{}),
	}
}

func (s *GraphState) recordStart(name, input string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NodeStates = append(s.NodeStates, NodeState{Name: name, Input: input, Status: "pending"})
}

func (s *GraphState) recordReasoning(name, reasoning string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.NodeStates) - 1; i >= 0; i-- {
		if s.NodeStates[i].Name == name && s.NodeStates[i].Status != "completed" {
			s.NodeStates[i].Reasoning = reasoning
			s.NodeStates[i].Status = "reasoning"
			return
		}
	}
}

func (s *GraphState) recordResult(name, output, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Results[name] = output
	if status == "completed" {
		s.completed[name] = struct{}{}
	}
	for i := len(s.NodeStates) - 1; i >= 0; i-- {
		if s.NodeStates[i].Name == name && s.NodeStates[i].Status != "completed" {
			s.NodeStates[i].Output = output
			s.NodeStates[i].Status = status
			return
		}
	}
}

// IsCompleted reports whether a node has produced a result.
func (s *GraphState) IsCompleted(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.completed[name]
	return ok
}

// Result returns a node's last recorded output.
func (s *GraphState) Result(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Results[name]
	return v, ok
}

// markCompleted is used by patterns (loop, revision) that need to flag an
// endpoint completed without routing a fresh result through recordResult,
// mirroring DAGExecutor.executeLoopNode marking both loop endpoints visited
// once the loop exits.
func (s *GraphState) markCompleted(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[name] = struct{}{}
}

// Graph holds the node and edge registries plus the shared GraphState,
// generalizing workflow.DAGGraph (workflow/dag.go) from a single
// AddEdge(from,to) into pattern-grouped outgoing edges and replacing its
// fixed-NodeType dispatch with the Pattern registry in patterns.go.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	out   map[string][]Edge // From -> outgoing edges
	in    map[string][]Edge // To -> incoming edges

	state    *GraphState
	events   *engine.EventBus
	executor NodeExecutor
	logger   *zap.Logger
}

// NewGraph creates an empty graph driven by executor for LLM invocation and
// events for status/streaming notification.
func NewGraph(executor NodeExecutor, events *engine.EventBus, logger *zap.Logger) *Graph {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Graph{
		nodes:    make(map[string]*Node),
		out:      make(map[string][]Edge),
		in:       make(map[string][]Edge),
		state:    NewGraphState(),
		events:   events,
		executor: executor,
		logger:   logger.With(zap.String("component", "agentgraph")),
	}
}

// State returns the graph's shared execution state.
func (g *Graph) State() *GraphState { return g.state }

// AddNode registers a node, last-registration-wins like
// workflow.DAGGraph.AddNode.
func (g *Graph) AddNode(n *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[n.Name] = n
}

// AddEdge registers a directed edge, indexing it by both endpoints so
// GetInputNodes can answer reduce's predecessor query without a linear scan.
func (g *Graph) AddEdge(e Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[e.From]; !ok {
		return fmt.Errorf("agentgraph: edge from unknown node %q", e.From)
	}
	if _, ok := g.nodes[e.To]; !ok {
		return fmt.Errorf("agentgraph: edge to unknown node %q", e.To)
	}
	g.out[e.From] = append(g.out[e.From], e)
	g.in[e.To] = append(g.in[e.To], e)
	return nil
}

// GetNode returns a registered node by name.
func (g *Graph) GetNode(name string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[name]
	return n, ok
}

// GetInputNodes returns every edge terminating at nodeName, the predecessor
// set reduce's handler combines.
func (g *Graph) GetInputNodes(nodeName string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, len(g.in[nodeName]))
	copy(out, g.in[nodeName])
	return out
}

func (g *Graph) outgoingEdges(nodeName string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, len(g.out[nodeName]))
	copy(out, g.out[nodeName])
	return out
}

// groupByPattern buckets a node's outgoing edges by Pattern, since a node can
// have e.g. two sequential successors and a separate condition edge, each
// group dispatched to its own handler.
func groupByPattern(edges []Edge) map[Pattern][]Edge {
	groups := make(map[Pattern][]Edge)
	for _, e := range edges {
		groups[e.Pattern] = append(groups[e.Pattern], e)
	}
	return groups
}
