package graph

import (
	"context"
	"fmt"

	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/types"
)

// Params describes the graph nodes for one cataloged file: a file node
// for the summary and one node per chunk.
type Params struct {
	FileID     string
	Summary    string
	Chunks     []string
	Modality   types.Modality
	Collection string
	Path       string

	// FileEmbedding, when set, is used for the file node instead of
	// embedding the summary. Media encoders supply it.
	FileEmbedding []float32
}

// Writer persists file and chunk embeddings in the vector index.
type Writer struct {
	index types.VectorIndex
	embed types.Embedder
	log   *logger.Logger
}

func NewWriter(index types.VectorIndex, embed types.Embedder, log *logger.Logger) *Writer {
	return &Writer{index: index, embed: embed, log: log.With("service", "GraphWriter")}
}

func (w *Writer) Available() bool { return w.index != nil && w.index.Available() }

// WriteFileNodes upserts the file node and chunk nodes, returning the
// ids actually written. Nodes whose embedding cannot be produced are
// skipped, never fatal.
func (w *Writer) WriteFileNodes(ctx context.Context, p Params) ([]string, error) {
	if !w.Available() {
		return nil, nil
	}

	var nodes []types.GraphNode

	fileEmb := p.FileEmbedding
	if fileEmb == nil {
		fileEmb = w.embedText(ctx, p.Summary)
	}
	if fileEmb != nil {
		nodes = append(nodes, types.GraphNode{
			ID:        p.FileID + ":file",
			Text:      p.Summary,
			Embedding: fileEmb,
			Metadata: map[string]any{
				"file_id":    p.FileID,
				"type":       "file",
				"modality":   string(p.Modality),
				"collection": p.Collection,
				"path":       p.Path,
			},
		})
	}

	for i, chunk := range p.Chunks {
		emb := w.embedText(ctx, chunk)
		if emb == nil {
			continue
		}
		nodes = append(nodes, types.GraphNode{
			ID:        fmt.Sprintf("%s:chunk:%d", p.FileID, i),
			Text:      chunk,
			Embedding: emb,
			Metadata: map[string]any{
				"file_id":     p.FileID,
				"type":        "chunk",
				"chunk_index": i,
				"modality":    string(p.Modality),
				"collection":  p.Collection,
				"path":        p.Path,
			},
		})
	}

	if len(nodes) == 0 {
		return nil, nil
	}
	if err := w.index.Upsert(ctx, nodes); err != nil {
		return nil, err
	}
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	w.log.Debug("graph nodes written", "file_id", p.FileID, "nodes", len(ids))
	return ids, nil
}

// Delete removes a file's nodes. Best effort: a missing index or a
// failed delete only logs.
func (w *Writer) Delete(ctx context.Context, fileID string, chunkCount int) {
	if !w.Available() {
		return
	}
	ids := []string{fileID + ":file"}
	for i := 0; i < chunkCount; i++ {
		ids = append(ids, fmt.Sprintf("%s:chunk:%d", fileID, i))
	}
	if err := w.index.Delete(ctx, ids...); err != nil {
		w.log.Warn("graph node delete failed", "file_id", fileID, "error", err)
	}
}

// Search embeds the query and returns the nearest nodes.
func (w *Writer) Search(ctx context.Context, query string, topK int) ([]types.Match, error) {
	if !w.Available() || w.embed == nil || !w.embed.Available() {
		return nil, nil
	}
	emb, err := w.embed.EncodeText(ctx, query)
	if err != nil {
		return nil, err
	}
	if emb == nil {
		return nil, nil
	}
	return w.index.Query(ctx, emb, topK)
}

func (w *Writer) embedText(ctx context.Context, text string) []float32 {
	if text == "" || w.embed == nil || !w.embed.Available() {
		return nil
	}
	emb, err := w.embed.EncodeText(ctx, text)
	if err != nil {
		w.log.Warn("embedding failed, node skipped", "error", err)
		return nil
	}
	return emb
}
