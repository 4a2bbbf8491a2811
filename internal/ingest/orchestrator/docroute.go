package orchestrator

import (
	"context"
	"path"
	"path/filepath"

	"github.com/yungbote/datavault-backend/internal/ingest/document"
	"github.com/yungbote/datavault-backend/internal/ingest/graph"
	"github.com/yungbote/datavault-backend/internal/types"
)

// processText runs the document route: extract text, plan storage,
// catalog, chunk, and write graph nodes.
func (o *Orchestrator) processText(ctx context.Context, filePath string, modality types.Modality, tenant string, hints types.Hints, extra map[string]any) types.IngestResult {
	text := ""
	if o.opts.Extractor != nil {
		var err error
		text, err = o.opts.Extractor.Extract(ctx, filePath)
		if err != nil {
			return types.Failure(filePath, modality, err)
		}
	}

	name := filepath.Base(filePath)
	summary := hints.MetadataText
	if summary == "" {
		summary = document.Summarize(text, name)
	}
	plan, storageURI := o.resolvePlan(ctx, summary, filePath, hints)
	effectivePath := filePath
	if plan != nil && plan.MovedTo != "" {
		effectivePath = plan.MovedTo
	}
	extra["modality"] = string(modality)

	entry, err := o.opts.Documents.Ingest(ctx, document.Input{
		Path:       effectivePath,
		StorageURI: storageURI,
		TenantID:   tenant,
		Text:       text,
		Summary:    hints.MetadataText,
		Collection: hints.Collection,
		Extra:      extra,
	})
	if err != nil {
		return types.Failure(filePath, modality, err)
	}

	nodes := o.writeGraph(ctx, graph.Params{
		FileID:     entry.FileID,
		Summary:    entry.Summary,
		Chunks:     entry.Chunks,
		Modality:   modality,
		Collection: entry.Collection,
		Path:       storageURI,
	}, hints)

	return types.IngestResult{
		Status:           types.StatusCompleted,
		Path:             filePath,
		Modality:         modality,
		Route:            types.RouteNoSQL,
		FileID:           entry.FileID,
		Collection:       entry.Collection,
		ChunkCount:       len(entry.Chunks),
		StoragePlan:      plan,
		GraphNodes:       nodes,
		MongoCollections: entry.Collections,
		Metadata:         extra,
	}
}

// processMedia catalogs a media file. An available embedder supplies
// the caption and file embedding; otherwise a name-based caption and
// the media_assets collection are used. The file is copied into the
// object store under modality/collection.
func (o *Orchestrator) processMedia(ctx context.Context, filePath string, modality types.Modality, tenant string, hints types.Hints, extra map[string]any) types.IngestResult {
	name := filepath.Base(filePath)

	var fileEmb []float32
	caption := ""
	if o.opts.Embedder != nil && o.opts.Embedder.Available() {
		var err error
		fileEmb, caption, err = o.opts.Embedder.EncodeFile(ctx, filePath)
		if err != nil {
			if types.KindOf(err) == types.KindCancelled {
				return types.Failure(filePath, modality, err)
			}
			o.log.Warn("media encoding failed, using fallback caption", "path", filePath, "error", err)
		}
	}

	if caption == "" {
		caption = hints.MetadataText
	}
	collection := hints.Collection
	if caption == "" {
		caption = document.MediaCaption(modality, name)
		if collection == "" && fileEmb == nil {
			collection = "media_assets"
			extra["encoder_status"] = "unavailable"
		}
	}
	if collection == "" {
		collection = document.InferCollection(caption)
	}
	extra["modality"] = string(modality)

	effectivePath := filePath
	storageURI := filepath.ToSlash(filePath)
	if o.opts.Objects != nil {
		stored, err := o.opts.Objects.CopyInto(filePath, path.Join(string(modality), collection, name))
		if err != nil {
			return types.Failure(filePath, modality, err)
		}
		effectivePath = stored
		storageURI = o.opts.Objects.Relativize(stored)
	}

	entry, err := o.opts.Documents.Ingest(ctx, document.Input{
		Path:       effectivePath,
		StorageURI: storageURI,
		TenantID:   tenant,
		Summary:    caption,
		Collection: collection,
		Extra:      extra,
	})
	if err != nil {
		return types.Failure(filePath, modality, err)
	}

	nodes := o.writeGraph(ctx, graph.Params{
		FileID:        entry.FileID,
		Summary:       entry.Summary,
		Chunks:        entry.Chunks,
		Modality:      modality,
		Collection:    entry.Collection,
		Path:          storageURI,
		FileEmbedding: fileEmb,
	}, hints)

	return types.IngestResult{
		Status:           types.StatusCompleted,
		Path:             filePath,
		Modality:         modality,
		Route:            types.RouteNoSQL,
		FileID:           entry.FileID,
		Collection:       entry.Collection,
		ChunkCount:       len(entry.Chunks),
		GraphNodes:       nodes,
		MongoCollections: entry.Collections,
		Metadata:         extra,
	}
}

// writeGraph upserts graph nodes, degrading to an empty node list on
// any vector-store failure.
func (o *Orchestrator) writeGraph(ctx context.Context, p graph.Params, hints types.Hints) []string {
	if hints.SkipVector || o.opts.Graph == nil {
		return nil
	}
	nodes, err := o.opts.Graph.WriteFileNodes(ctx, p)
	if err != nil {
		o.log.Warn("graph node write failed", "file_id", p.FileID, "error", err)
		return nil
	}
	return nodes
}
