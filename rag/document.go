package rag

// Document is a retrieval-pipeline unit: raw content plus its embedding and
// arbitrary source metadata. Every VectorStore implementation (in-memory,
// Milvus, Qdrant, Pinecone, Weaviate) and every rag/loader adapter
// constructs and consumes this shape.
type Document struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float64      `json:"embedding,omitempty"`
}

// LowLevelSearchResult is the minimal result shape a raw vector index
// returns before it's wrapped into a VectorSearchResult with its source
// Document — what agent/memory.InMemoryVectorStore hands back directly
// since it stores bare vectors rather than full Documents.
type LowLevelSearchResult struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
