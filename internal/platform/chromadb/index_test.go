package chromadb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestResolveConfigDefaultsAndPlaceholders(t *testing.T) {
	t.Setenv("CHROMA_PERSIST_PATH", "")
	t.Setenv("CHROMA_NOSQL_COLLECTION", "")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.PersistPath != "./chroma_db" || cfg.Collection != "nosql_graph_embeddings" {
		t.Fatalf("defaults wrong: %+v", cfg)
	}

	t.Setenv("CHROMA_PERSIST_PATH", "<./data/chroma>")
	cfg, err = ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.PersistPath != "./data/chroma" {
		t.Fatalf("placeholder not stripped: %q", cfg.PersistPath)
	}
}

func TestFlattenMetadata(t *testing.T) {
	flat := flattenMetadata(map[string]any{
		"file_id":     "abc",
		"chunk_index": 3,
		"tags":        []string{"a", "b"},
		"empty":       nil,
	})
	if flat["file_id"] != "abc" || flat["chunk_index"] != "3" || flat["empty"] != "" {
		t.Fatalf("scalar flattening wrong: %v", flat)
	}
	if flat["tags"] != `["a","b"]` {
		t.Fatalf("non-scalar should be json, got %q", flat["tags"])
	}
}

func TestIndexRoundTrip(t *testing.T) {
	ix, err := Open(Config{
		PersistPath: filepath.Join(t.TempDir(), "chroma"),
		Collection:  "test_nodes",
	}, testLogger(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	nodes := []types.GraphNode{
		{ID: "f1:file", Text: "quarterly report", Embedding: []float32{1, 0, 0}, Metadata: map[string]any{"type": "file"}},
		{ID: "f1:chunk:0", Text: "revenue grew", Embedding: []float32{0.9, 0.1, 0}, Metadata: map[string]any{"type": "chunk", "chunk_index": 0}},
		{ID: "f1:skipped", Text: "no vector"},
	}
	if err := ix.Upsert(ctx, nodes); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	matches, err := ix.Query(ctx, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("want 2 matches (node without embedding skipped), got %d", len(matches))
	}
	if matches[0].ID != "f1:file" {
		t.Fatalf("best match: want=%q got=%q", "f1:file", matches[0].ID)
	}
	if matches[0].Metadata["type"] != "file" {
		t.Fatalf("metadata lost: %v", matches[0].Metadata)
	}

	if err := ix.Delete(ctx, "f1:file", "f1:chunk:0"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	matches, err = ix.Query(ctx, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("query after delete: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("want empty index after delete, got %d", len(matches))
	}
}

func TestUnavailableIndex(t *testing.T) {
	ix := Unavailable(testLogger(t))
	if ix.Available() {
		t.Fatalf("want unavailable")
	}
	if err := ix.Upsert(context.Background(), []types.GraphNode{{ID: "x"}}); types.KindOf(err) != types.KindVector {
		t.Fatalf("want vector error, got %v", err)
	}
	matches, err := ix.Query(context.Background(), []float32{1}, 5)
	if err != nil || matches != nil {
		t.Fatalf("unavailable query should be empty, got %v %v", matches, err)
	}
}
