package document

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/types"
)

// Input describes one file to catalog.
type Input struct {
	Path       string
	StorageURI string
	TenantID   string

	// Text is the full extracted text. Media files pass their caption
	// as Summary and leave Text empty.
	Text    string
	Summary string

	// Collection overrides keyword inference when set.
	Collection string
	Extra      map[string]any
}

// Entry is the persisted catalog record for one file.
type Entry struct {
	FileID      string
	Collection  string
	Summary     string
	Chunks      []string
	Collections map[string]string
}

// Ingestor writes file metadata and chunk documents to the document
// store. It never fails the pipeline on store errors: a local id is
// substituted so downstream stages can continue.
type Ingestor struct {
	docs types.DocumentStore
	log  *logger.Logger
}

func NewIngestor(docs types.DocumentStore, log *logger.Logger) *Ingestor {
	return &Ingestor{docs: docs, log: log.With("service", "DocumentIngestor")}
}

func (ing *Ingestor) Ingest(ctx context.Context, in Input) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.Tag(types.KindCancelled, err)
	}
	name := filepath.Base(in.Path)

	summary := in.Summary
	if summary == "" {
		summary = Summarize(in.Text, name)
	}
	collection := in.Collection
	if collection == "" {
		seed := summary
		if in.Text != "" {
			seed = in.Text
		}
		collection = InferCollection(seed)
	}

	fileID := ing.insertMeta(ctx, in, name, summary, collection)

	chunkSource := in.Text
	if chunkSource == "" {
		chunkSource = summary
	}
	chunks := Chunk(chunkSource, defaultChunkSize, defaultChunkOverlap)
	ing.insertChunks(ctx, collection, fileID, in.TenantID, chunks)

	return &Entry{
		FileID:      fileID,
		Collection:  collection,
		Summary:     summary,
		Chunks:      chunks,
		Collections: map[string]string{"files": "files", "chunks": collection},
	}, nil
}

func (ing *Ingestor) insertMeta(ctx context.Context, in Input, name, summary, collection string) string {
	var size int64
	if info, err := os.Stat(in.Path); err == nil {
		size = info.Size()
	}
	extra := in.Extra
	if extra == nil {
		extra = map[string]any{}
	}
	doc := map[string]any{
		"original_name":    name,
		"storage_uri":      in.StorageURI,
		"tenant_id":        in.TenantID,
		"collection_hint":  collection,
		"summary_preview":  preview(summary),
		"descriptive_text": summary,
		"extension":        filepath.Ext(name),
		"size_bytes":       size,
		"extra":            extra,
		"created_at":       time.Now().UTC(),
	}

	if !ing.docs.Available() {
		id := uuid.NewString()
		ing.log.Warn("document store unavailable, using local file id", "file_id", id, "file", name)
		return id
	}
	id, err := ing.docs.InsertOne(ctx, "files", doc)
	if err != nil {
		id = uuid.NewString()
		ing.log.Error("catalog insert failed, using local file id",
			"file", name, "file_id", id, "error", err, "kind", string(types.KindOf(err)))
	}
	return id
}

func (ing *Ingestor) insertChunks(ctx context.Context, collection, fileID, tenantID string, chunks []string) {
	if len(chunks) == 0 || !ing.docs.Available() {
		return
	}
	docs := make([]map[string]any, len(chunks))
	for i, text := range chunks {
		docs[i] = map[string]any{
			"file_id":     fileID,
			"tenant_id":   tenantID,
			"chunk_index": i,
			"text":        text,
			"chunk_size":  len([]rune(text)),
		}
	}
	if err := ing.docs.InsertMany(ctx, collection, docs); err != nil {
		ing.log.Error("chunk insert failed", "collection", collection, "file_id", fileID, "error", err)
	}
}

// MediaCaption is the fallback description when no encoder can caption
// a media file.
func MediaCaption(modality types.Modality, name string) string {
	return modality.Title() + " file " + name
}
