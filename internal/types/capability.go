package types

import "context"

// GraphNode is one vector-index entry: a file node or a chunk node.
type GraphNode struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]any
}

// Match is one semantic-search hit.
type Match struct {
	ID       string
	Score    float32
	Text     string
	Metadata map[string]string
}

// DocumentStore persists catalog entries and chunks. Implementations
// report Available()=false when unconfigured; callers degrade gracefully.
type DocumentStore interface {
	InsertOne(ctx context.Context, collection string, doc map[string]any) (string, error)
	InsertMany(ctx context.Context, collection string, docs []map[string]any) error
	Available() bool
}

// VectorIndex stores graph nodes with embeddings.
type VectorIndex interface {
	Upsert(ctx context.Context, nodes []GraphNode) error
	Query(ctx context.Context, embedding []float32, topK int) ([]Match, error)
	Delete(ctx context.Context, ids ...string) error
	Available() bool
}

// Embedder turns text or whole files into vectors. EncodeFile also
// returns a caption describing the file when the backend produces one.
type Embedder interface {
	EncodeText(ctx context.Context, text string) ([]float32, error)
	EncodeFile(ctx context.Context, path string) ([]float32, string, error)
	Available() bool
}

// TextExtractor pulls plain text out of a file. It returns "" without
// error for formats it does not handle.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// PathPlanner assigns a hierarchical storage path from a description.
type PathPlanner interface {
	Plan(ctx context.Context, description, filename string) (*PathPlan, error)
	Available() bool
}
