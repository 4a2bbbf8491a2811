package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/datavault-backend/internal/ingest/classify"
	"github.com/yungbote/datavault-backend/internal/ingest/detect"
	"github.com/yungbote/datavault-backend/internal/ingest/document"
	"github.com/yungbote/datavault-backend/internal/ingest/graph"
	"github.com/yungbote/datavault-backend/internal/ingest/rows"
	"github.com/yungbote/datavault-backend/internal/platform/ctxutil"
	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/platform/objectstore"
	"github.com/yungbote/datavault-backend/internal/schema/attr"
	"github.com/yungbote/datavault-backend/internal/schema/evolve"
	"github.com/yungbote/datavault-backend/internal/schema/sqlexec"
	"github.com/yungbote/datavault-backend/internal/types"
)

// Options wires the orchestrator's collaborators. Executor and Engine
// may be nil when no relational store is configured; tabular files are
// then cataloged as documents.
type Options struct {
	Classifier *classify.Classifier
	Executor   *sqlexec.Executor
	Engine     *evolve.Engine
	Synonyms   *attr.Synonyms
	Documents  *document.Ingestor
	Graph      *graph.Writer
	Extractor  types.TextExtractor
	Embedder   types.Embedder
	Planner    types.PathPlanner
	Objects    *objectstore.Store
	MoveFiles  bool
	TenantID   string
	Log        *logger.Logger
}

// Orchestrator owns the file lifecycle: classification, routing,
// persistence and the uniform result envelope.
type Orchestrator struct {
	opts Options
	log  *logger.Logger

	mu    sync.Mutex
	files map[string]*sync.Mutex
}

func New(opts Options) *Orchestrator {
	return &Orchestrator{
		opts:  opts,
		log:   opts.Log.With("service", "IngestionOrchestrator"),
		files: map[string]*sync.Mutex{},
	}
}

// ProcessFile ingests one file end to end. It always returns an
// envelope; errors are reported in it, never panicked or swallowed.
func (o *Orchestrator) ProcessFile(ctx context.Context, path string, hints types.Hints) types.IngestResult {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	lock := o.fileLock(abs)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return types.Failure(path, "", types.Tag(types.KindCancelled, err))
	}
	trace := &ctxutil.TraceData{TraceID: uuid.NewString(), Path: path}
	ctx = ctxutil.WithTraceData(ctx, trace)

	det := detect.Detect(path)
	modality := det.Modality
	if hints.Modality != "" {
		modality = hints.Modality
	}
	tenant := hints.TenantID
	if tenant == "" {
		tenant = o.opts.TenantID
	}

	extra := map[string]any{"detected_type": string(det.Type)}
	if sig, err := rows.Signature(path); err == nil {
		extra["signature"] = sig
	} else {
		return types.Failure(path, modality, types.Tag(types.KindIO, err))
	}

	o.log.Info("processing file", "trace_id", trace.TraceID, "path", path, "modality", string(modality), "tenant_id", tenant)

	if modality.IsMedia() {
		return o.processMedia(ctx, path, modality, tenant, hints, extra)
	}
	if modality == types.ModalityBinary {
		return o.processText(ctx, path, modality, tenant, hints, extra)
	}

	route := classify.ClassNoSQL
	if o.sqlReady() {
		cls, err := o.opts.Classifier.Classify(path)
		if err == nil {
			route = cls.Class
			extra["classifier_confidence"] = cls.Confidence
		} else {
			o.log.Warn("classification failed, routing to document store", "path", path, "error", err)
		}
	}
	if route == classify.ClassSQL {
		return o.processSQL(ctx, path, tenant, hints, extra)
	}
	return o.processText(ctx, path, types.ModalityDocument, tenant, hints, extra)
}

func (o *Orchestrator) sqlReady() bool {
	return o.opts.Executor != nil && o.opts.Engine != nil && o.opts.Classifier != nil
}

// Search embeds the query and returns the nearest graph nodes.
func (o *Orchestrator) Search(ctx context.Context, query string, topK int) ([]types.Match, error) {
	if o.opts.Graph == nil {
		return nil, nil
	}
	return o.opts.Graph.Search(ctx, query, topK)
}

func (o *Orchestrator) fileLock(abs string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	if l, ok := o.files[abs]; ok {
		return l
	}
	l := &sync.Mutex{}
	o.files[abs] = l
	return l
}

// resolvePlan asks the path planner for a storage location and, when
// moves are enabled, relocates the file under the object root. Plan
// failures degrade to no plan.
func (o *Orchestrator) resolvePlan(ctx context.Context, description, path string, hints types.Hints) (*types.PathPlan, string) {
	storageURI := filepath.ToSlash(path)
	if o.opts.Objects != nil {
		storageURI = o.opts.Objects.Relativize(path)
	}
	planner := o.opts.Planner
	if hints.SkipPlan || planner == nil || !planner.Available() {
		return nil, storageURI
	}
	plan, err := planner.Plan(ctx, description, filepath.Base(path))
	if err != nil {
		o.log.Warn("storage plan failed", "path", path, "error", err)
		return nil, storageURI
	}
	if plan == nil {
		return nil, storageURI
	}
	if o.opts.MoveFiles && o.opts.Objects != nil {
		moved, err := o.opts.Objects.Move(path, plan.Path)
		if err != nil {
			o.log.Warn("planned move failed", "path", path, "plan", plan.Path, "error", err)
			return plan, storageURI
		}
		plan.MovedTo = moved
		storageURI = o.opts.Objects.Relativize(moved)
	}
	return plan, storageURI
}

// summarizeRows builds the descriptive text recorded for a relational
// ingest.
func summarizeRows(name, table string, set rows.Set) string {
	cols := set.Attributes
	if len(cols) > 8 {
		cols = cols[:8]
	}
	list := ""
	for i, c := range cols {
		if i > 0 {
			list += ", "
		}
		list += c
	}
	return fmt.Sprintf("Structured file %s ingested into table %s: %d rows with columns %s.",
		name, table, len(set.Records), list)
}
