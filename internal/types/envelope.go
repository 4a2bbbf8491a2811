package types

// PathPlan is the hierarchical storage plan produced by a path planner:
// persona/domain/category/topic/filename.
type PathPlan struct {
	Persona  string `json:"persona"`
	Domain   string `json:"domain"`
	Category string `json:"category"`
	Topic    string `json:"topic"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	MovedTo  string `json:"moved_to,omitempty"`
}

// IngestResult is the envelope returned for every processed file,
// success or failure.
type IngestResult struct {
	Status   string   `json:"status"`
	Path     string   `json:"path"`
	Modality Modality `json:"modality,omitempty"`
	Route    string   `json:"route,omitempty"`

	// Relational route.
	Table         string   `json:"table,omitempty"`
	ChildTables   []string `json:"child_tables,omitempty"`
	Decision      string   `json:"decision,omitempty"`
	RowsAttempted int      `json:"rows_attempted,omitempty"`
	RowsInserted  int      `json:"rows_inserted,omitempty"`

	// Document route.
	FileID           string            `json:"file_id,omitempty"`
	Collection       string            `json:"collection,omitempty"`
	ChunkCount       int               `json:"chunk_count,omitempty"`
	StoragePlan      *PathPlan         `json:"storage_plan,omitempty"`
	GraphNodes       []string          `json:"graph_nodes,omitempty"`
	MongoCollections map[string]string `json:"mongo_collections,omitempty"`

	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

const (
	StatusCompleted = "completed"
	StatusError     = "error"
	StatusSkipped   = "skipped"

	RouteSQL   = "sql"
	RouteNoSQL = "nosql"

	DecisionSameTable         = "same_table"
	DecisionEvolvedTable      = "evolved_table"
	DecisionEvolvedTableJSONB = "evolved_table_jsonb"
	DecisionNewTable          = "new_table"
)

// Hints let callers pin routing ahead of classification. PrimaryKey
// names the attribute to promote when a new table is created;
// MetadataText replaces the generated description in catalog entries.
type Hints struct {
	TenantID     string
	Collection   string
	Modality     Modality
	PrimaryKey   string
	MetadataText string
	SkipVector   bool
	SkipPlan     bool
}

func Failure(path string, modality Modality, err error) IngestResult {
	res := IngestResult{Status: StatusError, Path: path, Modality: modality}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}
