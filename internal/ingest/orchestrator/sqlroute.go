package orchestrator

import (
	"context"
	"path/filepath"

	"github.com/yungbote/datavault-backend/internal/ingest/document"
	"github.com/yungbote/datavault-backend/internal/ingest/rows"
	"github.com/yungbote/datavault-backend/internal/schema/attr"
	"github.com/yungbote/datavault-backend/internal/schema/sqlexec"
	"github.com/yungbote/datavault-backend/internal/types"
)

// processSQL runs the relational route: extract rows, decide schema
// evolution, execute DDL and inserts, then record a catalog entry.
func (o *Orchestrator) processSQL(ctx context.Context, path, tenant string, hints types.Hints, extra map[string]any) types.IngestResult {
	set, err := rows.Extract(path)
	if err != nil {
		return types.Failure(path, types.ModalityTabular, err)
	}
	if set.Empty() {
		res := types.IngestResult{
			Status:   types.StatusSkipped,
			Path:     path,
			Modality: types.ModalityTabular,
			Route:    types.RouteSQL,
			Metadata: extra,
		}
		o.log.Warn("no rows extracted, skipping", "path", path)
		return res
	}

	decision := o.opts.Engine.Decide(set)
	mapping := map[string]string{}
	for k, v := range decision.Mapping {
		mapping[k] = v
	}

	table := decision.Table
	exec := o.opts.Executor
	switch decision.Decision {
	case types.DecisionNewTable:
		table = sqlexec.TableName(set.Attributes)
		if _, err := exec.CreateTable(ctx, table, set, hints.PrimaryKey); err != nil {
			return types.Failure(path, types.ModalityTabular, err)
		}
	case types.DecisionEvolvedTable:
		remap, err := exec.AddColumns(ctx, table, decision.NewFields, set, o.opts.Synonyms)
		if err != nil {
			return types.Failure(path, types.ModalityTabular, err)
		}
		for k, v := range remap {
			mapping[k] = v
		}
	case types.DecisionEvolvedTableJSONB:
		if err := exec.EnsureJSONBColumn(ctx, table); err != nil {
			return types.Failure(path, types.ModalityTabular, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return types.Failure(path, types.ModalityTabular, types.Tag(types.KindCancelled, err))
	}

	stats, err := exec.InsertRows(ctx, table, set, mapping, decision.NewFields)
	if err != nil {
		// Schema changes stay in place: they are idempotent and the
		// next attempt reuses them.
		return types.Failure(path, types.ModalityTabular, err)
	}

	childTables := o.insertChildren(ctx, table, set.Children)

	name := filepath.Base(path)
	storageURI := filepath.ToSlash(path)
	if o.opts.Objects != nil {
		storageURI = o.opts.Objects.Relativize(path)
	}
	extra["table"] = table
	extra["decision"] = decision.Decision

	summary := hints.MetadataText
	if summary == "" {
		summary = summarizeRows(name, table, set)
	}
	entry, err := o.opts.Documents.Ingest(ctx, document.Input{
		Path:       path,
		StorageURI: storageURI,
		TenantID:   tenant,
		Summary:    summary,
		Collection: hints.Collection,
		Extra:      extra,
	})
	if err != nil {
		return types.Failure(path, types.ModalityTabular, err)
	}

	return types.IngestResult{
		Status:           types.StatusCompleted,
		Path:             path,
		Modality:         types.ModalityTabular,
		Route:            types.RouteSQL,
		Table:            table,
		ChildTables:      childTables,
		Decision:         decision.Decision,
		RowsAttempted:    stats.Attempted,
		RowsInserted:     stats.Inserted,
		FileID:           entry.FileID,
		Collection:       entry.Collection,
		ChunkCount:       len(entry.Chunks),
		MongoCollections: entry.Collections,
		Metadata:         extra,
	}
}

// insertChildren persists nested row groups as child tables after the
// parent insert succeeded. Best effort: a failing child is logged and
// left out of the envelope.
func (o *Orchestrator) insertChildren(ctx context.Context, parent string, children []rows.ChildSet) []string {
	var created []string
	for _, child := range children {
		name := childTableName(parent, child.Name)
		if _, err := o.opts.Executor.CreateTable(ctx, name, child.Set, ""); err != nil {
			o.log.Warn("child table create failed", "table", name, "error", err)
			continue
		}
		if _, err := o.opts.Executor.InsertRows(ctx, name, child.Set, nil, nil); err != nil {
			o.log.Warn("child table insert failed", "table", name, "error", err)
			continue
		}
		created = append(created, name)
	}
	return created
}

func childTableName(parent, child string) string {
	name := parent + "_" + attr.Normalize(child)
	if len(name) > 50 {
		name = name[:50]
	}
	return name
}
