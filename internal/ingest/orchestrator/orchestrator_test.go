package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/datavault-backend/internal/ingest/classify"
	"github.com/yungbote/datavault-backend/internal/ingest/document"
	"github.com/yungbote/datavault-backend/internal/ingest/extract"
	"github.com/yungbote/datavault-backend/internal/ingest/graph"
	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/platform/objectstore"
	"github.com/yungbote/datavault-backend/internal/schema/attr"
	"github.com/yungbote/datavault-backend/internal/schema/catalog"
	"github.com/yungbote/datavault-backend/internal/schema/evolve"
	"github.com/yungbote/datavault-backend/internal/schema/sqlexec"
	"github.com/yungbote/datavault-backend/internal/types"
)

type fakeDocs struct {
	available bool
	inserted  map[string][]map[string]any
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{available: true, inserted: map[string][]map[string]any{}}
}

func (f *fakeDocs) Available() bool { return f.available }

func (f *fakeDocs) InsertOne(_ context.Context, collection string, doc map[string]any) (string, error) {
	f.inserted[collection] = append(f.inserted[collection], doc)
	return "file-0001", nil
}

func (f *fakeDocs) InsertMany(_ context.Context, collection string, docs []map[string]any) error {
	f.inserted[collection] = append(f.inserted[collection], docs...)
	return nil
}

type fakeIndex struct {
	nodes map[string]types.GraphNode
}

func (f *fakeIndex) Available() bool { return true }

func (f *fakeIndex) Upsert(_ context.Context, nodes []types.GraphNode) error {
	for _, n := range nodes {
		f.nodes[n.ID] = n
	}
	return nil
}

func (f *fakeIndex) Query(_ context.Context, _ []float32, topK int) ([]types.Match, error) {
	var out []types.Match
	for id := range f.nodes {
		if len(out) == topK {
			break
		}
		out = append(out, types.Match{ID: id})
	}
	return out, nil
}

func (f *fakeIndex) Delete(_ context.Context, ids ...string) error {
	for _, id := range ids {
		delete(f.nodes, id)
	}
	return nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Available() bool { return true }

func (fakeEmbedder) EncodeText(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text))}, nil
}

func (fakeEmbedder) EncodeFile(_ context.Context, _ string) ([]float32, string, error) {
	return nil, "", nil
}

type harness struct {
	orch    *Orchestrator
	db      *gorm.DB
	cat     *catalog.Catalog
	docs    *fakeDocs
	index   *fakeIndex
	objects *objectstore.Store
	dir     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cat := catalog.New(db, log)
	if err := cat.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	syn := attr.DefaultSynonyms()
	docs := newFakeDocs()
	index := &fakeIndex{nodes: map[string]types.GraphNode{}}
	embed := fakeEmbedder{}
	objects, err := objectstore.New(objectstore.Config{Root: filepath.Join(t.TempDir(), "repo")}, log)
	if err != nil {
		t.Fatalf("objectstore: %v", err)
	}

	orch := New(Options{
		Classifier: classify.New(log),
		Executor:   sqlexec.New(db, cat, log),
		Engine:     evolve.New(cat, syn, log),
		Synonyms:   syn,
		Documents:  document.NewIngestor(docs, log),
		Graph:      graph.NewWriter(index, embed, log),
		Extractor:  extract.NewPlain(log),
		Embedder:   embed,
		Objects:    objects,
		TenantID:   "tenant_default",
		Log:        log,
	})
	return &harness{orch: orch, db: db, cat: cat, docs: docs, index: index, objects: objects, dir: t.TempDir()}
}

func (h *harness) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func (h *harness) count(t *testing.T, table string) int {
	t.Helper()
	var n int64
	if err := h.db.Raw("SELECT COUNT(*) FROM " + table).Scan(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return int(n)
}

const productsCSV = "product_id,name,price,quantity\n1,Widget,9.99,12\n2,Gadget,19.50,3\n"

func TestProcessFileCreatesTableFromCSV(t *testing.T) {
	h := newHarness(t)
	path := h.write(t, "products.csv", productsCSV)

	res := h.orch.ProcessFile(context.Background(), path, types.Hints{})
	if res.Status != types.StatusCompleted {
		t.Fatalf("status: want completed, got %+v", res)
	}
	if res.Route != types.RouteSQL || res.Decision != types.DecisionNewTable {
		t.Fatalf("route/decision: %+v", res)
	}
	if res.Table != "table_product_id_name_price" {
		t.Fatalf("table name: got %q", res.Table)
	}
	if res.RowsInserted != 2 || res.RowsAttempted != 2 {
		t.Fatalf("rows: %+v", res)
	}
	if h.count(t, res.Table) != 2 {
		t.Fatalf("table rows: want 2")
	}
	if res.FileID == "" {
		t.Fatalf("catalog entry missing")
	}
	if len(h.docs.inserted["files"]) != 1 {
		t.Fatalf("files doc not written")
	}
}

func TestProcessFileSynonymsJoinExistingTable(t *testing.T) {
	h := newHarness(t)
	first := h.write(t, "products.csv", productsCSV)
	if res := h.orch.ProcessFile(context.Background(), first, types.Hints{}); res.Status != types.StatusCompleted {
		t.Fatalf("seed ingest failed: %+v", res)
	}

	second := h.write(t, "more.csv", "product_id,name,cost,qty\n3,Sprocket,4.25,100\n")
	res := h.orch.ProcessFile(context.Background(), second, types.Hints{})
	if res.Status != types.StatusCompleted {
		t.Fatalf("status: %+v", res)
	}
	if res.Decision != types.DecisionSameTable {
		t.Fatalf("decision: want same_table, got %q (%+v)", res.Decision, res)
	}
	if res.Table != "table_product_id_name_price" {
		t.Fatalf("joined wrong table: %q", res.Table)
	}
	if h.count(t, res.Table) != 3 {
		t.Fatalf("rows after synonym ingest: want 3, got %d", h.count(t, res.Table))
	}
}

func TestProcessFileEvolvesTable(t *testing.T) {
	h := newHarness(t)
	first := h.write(t, "products.csv", productsCSV)
	if res := h.orch.ProcessFile(context.Background(), first, types.Hints{}); res.Status != types.StatusCompleted {
		t.Fatalf("seed ingest failed: %+v", res)
	}

	second := h.write(t, "evolved.csv", "product_id,name,price,quantity,origin\n9,Gizmo,2.50,7,DE\n")
	res := h.orch.ProcessFile(context.Background(), second, types.Hints{})
	if res.Status != types.StatusCompleted {
		t.Fatalf("status: %+v", res)
	}
	if res.Decision != types.DecisionEvolvedTable {
		t.Fatalf("decision: want evolved_table, got %q", res.Decision)
	}
	desc, ok := h.cat.Table(res.Table)
	if !ok || !desc.HasColumn("origin") {
		t.Fatalf("origin column not added")
	}
}

func TestProcessFileRoutesConfigJSONToDocuments(t *testing.T) {
	h := newHarness(t)
	path := h.write(t, "settings.json", `{
  "server": {"host": "localhost", "port": 8080},
  "features": {"beta": true, "limits": {"rps": 100}}
}`)

	res := h.orch.ProcessFile(context.Background(), path, types.Hints{})
	if res.Status != types.StatusCompleted {
		t.Fatalf("status: %+v", res)
	}
	if res.Route != types.RouteNoSQL {
		t.Fatalf("route: want nosql, got %+v", res)
	}
	if res.FileID != "file-0001" || res.ChunkCount < 1 {
		t.Fatalf("document ingest missing: %+v", res)
	}
	if len(res.GraphNodes) != 1+res.ChunkCount {
		t.Fatalf("graph nodes: want file+chunks, got %v", res.GraphNodes)
	}
	if _, ok := h.index.nodes["file-0001:file"]; !ok {
		t.Fatalf("file node missing")
	}
}

func TestProcessFileMediaFallback(t *testing.T) {
	h := newHarness(t)
	path := h.write(t, "cat.jpg", "\xff\xd8\xff\xe0 not really a jpeg")

	res := h.orch.ProcessFile(context.Background(), path, types.Hints{})
	if res.Status != types.StatusCompleted {
		t.Fatalf("status: %+v", res)
	}
	if res.Modality != types.ModalityImage || res.Collection != "media_assets" {
		t.Fatalf("media fallback: %+v", res)
	}
	meta := h.docs.inserted["files"][0]
	if meta["descriptive_text"] != "Image file cat.jpg" {
		t.Fatalf("caption: %v", meta["descriptive_text"])
	}
	uri, _ := meta["storage_uri"].(string)
	if uri != "image/media_assets/cat.jpg" {
		t.Fatalf("storage uri: %q", uri)
	}
}

func TestProcessFileMediaCopyFailureIsTerminal(t *testing.T) {
	h := newHarness(t)
	// A plain file where the modality directory belongs makes every
	// copy under it fail.
	if err := os.WriteFile(filepath.Join(h.objects.Root(), "image"), []byte("x"), 0o644); err != nil {
		t.Fatalf("block modality dir: %v", err)
	}
	path := h.write(t, "cat.jpg", "\xff\xd8\xff\xe0 not really a jpeg")

	res := h.orch.ProcessFile(context.Background(), path, types.Hints{})
	if res.Status != types.StatusError {
		t.Fatalf("copy failure must fail the envelope: %+v", res)
	}
	if !containsKind(res.Error, types.KindIO) {
		t.Fatalf("error kind: want io, got %q", res.Error)
	}
	if len(h.docs.inserted["files"]) != 0 {
		t.Fatalf("no catalog entry for an un-stored media file")
	}
}

func TestProcessFileHintsPrimaryKeyAndMetadataText(t *testing.T) {
	h := newHarness(t)
	path := h.write(t, "products.csv", productsCSV)

	res := h.orch.ProcessFile(context.Background(), path, types.Hints{
		PrimaryKey:   "name",
		MetadataText: "Vendor price list for the autumn catalog.",
	})
	if res.Status != types.StatusCompleted {
		t.Fatalf("status: %+v", res)
	}
	desc, ok := h.cat.Table(res.Table)
	if !ok {
		t.Fatalf("descriptor missing for %q", res.Table)
	}
	col, _ := desc.Column("name")
	if !col.IsPrimary {
		t.Fatalf("requested primary key not honored: %+v", desc.Columns)
	}
	meta := h.docs.inserted["files"][0]
	if meta["descriptive_text"] != "Vendor price list for the autumn catalog." {
		t.Fatalf("descriptive_text: %v", meta["descriptive_text"])
	}
}

func TestProcessFileCancelledContext(t *testing.T) {
	h := newHarness(t)
	path := h.write(t, "note.txt", "some text")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := h.orch.ProcessFile(ctx, path, types.Hints{})
	if res.Status != types.StatusError {
		t.Fatalf("status: %+v", res)
	}
	if got := res.Error; got == "" || !containsKind(got, types.KindCancelled) {
		t.Fatalf("error kind: %q", got)
	}
}

func containsKind(msg string, kind types.ErrorKind) bool {
	return len(msg) > len(kind) && msg[:len(kind)+1] == string(kind)+"/"
}

func TestProcessBatchWalksDirectories(t *testing.T) {
	h := newHarness(t)
	h.write(t, "a.csv", productsCSV)
	h.write(t, "b.txt", "Plain note about an order. Another sentence.")

	files, err := ExpandPaths([]string{h.dir})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("want 2 files, got %v", files)
	}
	results := h.orch.ProcessBatch(context.Background(), files, 2)
	if len(results) != 2 {
		t.Fatalf("want 2 results")
	}
	for _, res := range results {
		if res.Status != types.StatusCompleted {
			t.Fatalf("batch result failed: %+v", res)
		}
	}
}

func TestSearchFindsIngestedNodes(t *testing.T) {
	h := newHarness(t)
	path := h.write(t, "report.md", "Quarterly report. Revenue grew ten percent.")
	if res := h.orch.ProcessFile(context.Background(), path, types.Hints{}); res.Status != types.StatusCompleted {
		t.Fatalf("ingest: %+v", res)
	}
	matches, err := h.orch.Search(context.Background(), "revenue", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("want matches from ingested document")
	}
}
