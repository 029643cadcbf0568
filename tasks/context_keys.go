package tasks

// Context key names registered against engine.Context by the task library's
// tasks, the shared vocabulary a workflow wires completion/planning/
// web-search/writer/analyzer/reflector/refine-query/suggestions through.
const (
	KeyQuery         = "tasks.query"
	KeyPlan          = "tasks.plan"
	KeySearchResults = "tasks.search_results"
	KeyRetrievedDocs = "tasks.retrieved_docs"
	KeyDraft         = "tasks.draft"
	KeyAnalysis      = "tasks.analysis"
	KeyFinalAnswer   = "tasks.final_answer"
	KeyRevisionCount = "tasks.revision_count"
)
