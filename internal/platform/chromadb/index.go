package chromadb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/types"
)

// Index persists graph-node embeddings in an embedded chromem
// collection. Open failures degrade to an unavailable index so
// ingestion can continue without vector search.
type Index struct {
	col *chromem.Collection
	log *logger.Logger
}

func Open(cfg Config, log *logger.Logger) (*Index, error) {
	log = log.With("service", "VectorIndex")
	db, err := chromem.NewPersistentDB(cfg.PersistPath, false)
	if err != nil {
		return nil, fmt.Errorf("open chroma store at %q: %w", cfg.PersistPath, err)
	}
	col, err := db.GetOrCreateCollection(cfg.Collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("open collection %q: %w", cfg.Collection, err)
	}
	log.Info("vector index ready", "path", cfg.PersistPath, "collection", cfg.Collection)
	return &Index{col: col, log: log}, nil
}

// Unavailable returns an index that rejects writes and returns empty
// query results.
func Unavailable(log *logger.Logger) *Index {
	return &Index{log: log.With("service", "VectorIndex")}
}

func (ix *Index) Available() bool { return ix.col != nil }

func (ix *Index) Upsert(ctx context.Context, nodes []types.GraphNode) error {
	if ix.col == nil {
		return types.Tag(types.KindVector, fmt.Errorf("vector index unavailable"))
	}
	for _, n := range nodes {
		if len(n.Embedding) == 0 {
			ix.log.Debug("skipping node without embedding", "node_id", n.ID)
			continue
		}
		doc := chromem.Document{
			ID:        n.ID,
			Content:   n.Text,
			Embedding: n.Embedding,
			Metadata:  flattenMetadata(n.Metadata),
		}
		if err := ix.col.AddDocument(ctx, doc); err != nil {
			return types.Tag(types.KindVector, fmt.Errorf("upsert node %q: %w", n.ID, err))
		}
	}
	return nil
}

func (ix *Index) Query(ctx context.Context, embedding []float32, topK int) ([]types.Match, error) {
	if ix.col == nil {
		return nil, nil
	}
	if n := ix.col.Count(); topK > n {
		topK = n
	}
	if topK <= 0 {
		return nil, nil
	}
	results, err := ix.col.QueryEmbedding(ctx, embedding, topK, nil, nil)
	if err != nil {
		return nil, types.Tag(types.KindVector, fmt.Errorf("query: %w", err))
	}
	matches := make([]types.Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, types.Match{
			ID:       r.ID,
			Score:    r.Similarity,
			Text:     r.Content,
			Metadata: r.Metadata,
		})
	}
	return matches, nil
}

func (ix *Index) Delete(ctx context.Context, ids ...string) error {
	if ix.col == nil || len(ids) == 0 {
		return nil
	}
	if err := ix.col.Delete(ctx, nil, nil, ids...); err != nil {
		return types.Tag(types.KindVector, fmt.Errorf("delete %d nodes: %w", len(ids), err))
	}
	return nil
}

// flattenMetadata converts node metadata to the string map chromem
// stores. Scalars are formatted directly, anything else is JSON.
func flattenMetadata(meta map[string]any) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		switch val := v.(type) {
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case int:
			out[k] = strconv.Itoa(val)
		case int64:
			out[k] = strconv.FormatInt(val, 10)
		case float64:
			out[k] = strconv.FormatFloat(val, 'g', -1, 64)
		case float32:
			out[k] = strconv.FormatFloat(float64(val), 'g', -1, 32)
		case nil:
			out[k] = ""
		default:
			if b, err := json.Marshal(v); err == nil {
				out[k] = string(b)
			} else {
				out[k] = fmt.Sprint(v)
			}
		}
	}
	return out
}

var _ types.VectorIndex = (*Index)(nil)
