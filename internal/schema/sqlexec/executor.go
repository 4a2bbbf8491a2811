package sqlexec

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/datavault-backend/internal/ingest/rows"
	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/schema/attr"
	"github.com/yungbote/datavault-backend/internal/schema/catalog"
	"github.com/yungbote/datavault-backend/internal/types"
)

const (
	insertBatchSize = 100
	maxPKRetries    = 3

	// extraColumn holds attributes that have no physical column after a
	// jsonb evolution.
	extraColumn = "extra"
)

// Executor owns all DDL and DML against the relational store. It is
// the only writer for a file's rows; the catalog is refreshed after
// every DDL change it makes.
type Executor struct {
	db      *gorm.DB
	catalog *catalog.Catalog
	log     *logger.Logger
}

func New(db *gorm.DB, cat *catalog.Catalog, log *logger.Logger) *Executor {
	return &Executor{db: db, catalog: cat, log: log.With("service", "SQLExecutor")}
}

// InferColumnType picks a DDL type from up to 100 non-null samples.
// Mixed integer/real samples widen to NUMERIC; any other mix falls
// back to TEXT. VARCHAR lengths round up to the next 50, capped at
// 1000; longer samples use TEXT.
func InferColumnType(values []rows.Value) string {
	var samples []rows.Value
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		samples = append(samples, v)
		if len(samples) == 100 {
			break
		}
	}
	if len(samples) == 0 {
		return attr.TypeText
	}

	seen := map[string]bool{}
	maxLen := 0
	for _, v := range samples {
		t := attr.TypeOf(v)
		seen[t] = true
		if t == attr.TypeVarchar {
			if n := len(v.Text()); n > maxLen {
				maxLen = n
			}
		}
	}

	if len(seen) > 1 {
		if len(seen) == 2 && seen[attr.TypeInteger] && seen[attr.TypeNumeric] {
			return attr.TypeNumeric
		}
		return attr.TypeText
	}
	for t := range seen {
		if t != attr.TypeVarchar {
			return t
		}
	}
	if maxLen > 1000 {
		return attr.TypeText
	}
	size := (maxLen/50 + 1) * 50
	if size > 1000 {
		size = 1000
	}
	return fmt.Sprintf("%s(%d)", attr.TypeVarchar, size)
}

// TableName derives a table name from the first three normalized
// attributes: table_id_name_price. Truncated to 50 characters.
func TableName(attrs []string) string {
	parts := []string{"table"}
	for i, a := range attrs {
		if i == 3 {
			break
		}
		if n := attr.Normalize(a); n != "" {
			parts = append(parts, n)
		}
	}
	name := strings.Join(parts, "_")
	if len(name) > 50 {
		name = name[:50]
	}
	return name
}

// CreateTable creates a table for the set's attributes in arrival
// order. The primary key is the caller-requested attribute when it
// names one of the set's attributes, else the first ID-like attribute.
// Races with another creator are benign: CREATE TABLE IF NOT EXISTS
// plus a duplicate-table check.
func (e *Executor) CreateTable(ctx context.Context, table string, set rows.Set, requestedPK string) (string, error) {
	pk := choosePrimaryKey(set.Attributes, requestedPK)
	pkAssigned := false
	var defs []string
	for _, a := range set.Attributes {
		norm := attr.Normalize(a)
		if norm == "" {
			continue
		}
		colType := InferColumnType(set.Values(a))
		def := fmt.Sprintf("%q %s", norm, colType)
		if norm == pk && !pkAssigned {
			def += " PRIMARY KEY"
			pkAssigned = true
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return "", types.Tag(types.KindSchema, fmt.Errorf("table %q: no usable attributes", table))
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s)", table, strings.Join(defs, ", "))
	if err := e.db.WithContext(ctx).Exec(ddl).Error; err != nil && !isDuplicateTable(err) {
		return "", types.Tag(types.KindSchema, fmt.Errorf("create table %q: %w", table, err))
	}
	e.log.Info("table created", "table", table, "columns", len(defs), "primary_key", pk)
	if err := e.catalog.Refresh(ctx); err != nil {
		return "", types.Tag(types.KindSchema, err)
	}
	return pk, nil
}

// choosePrimaryKey applies the key priority: an explicit caller
// request naming one of the attributes wins, then the first ID-like
// attribute, then none.
func choosePrimaryKey(attrs []string, requestedPK string) string {
	if requested := attr.Normalize(requestedPK); requested != "" {
		for _, a := range attrs {
			if attr.Normalize(a) == requested {
				return requested
			}
		}
	}
	for _, a := range attrs {
		if attr.IsID(a) {
			return attr.Normalize(a)
		}
	}
	return ""
}

// AddColumns adds new fields to an existing table. A field whose name
// and type already fit an existing column (name similarity >= 0.8 and
// type compatibility >= 0.7) is remapped instead of added; the remap
// is returned so the caller can extend its mapping.
func (e *Executor) AddColumns(ctx context.Context, table string, newFields []string, set rows.Set, syn *attr.Synonyms) (map[string]string, error) {
	desc, ok := e.catalog.Table(table)
	if !ok {
		if err := e.catalog.Refresh(ctx); err != nil {
			return nil, types.Tag(types.KindSchema, err)
		}
		if desc, ok = e.catalog.Table(table); !ok {
			return nil, types.Tag(types.KindSchema, fmt.Errorf("unknown table %q", table))
		}
	}

	remap := map[string]string{}
	added := false
	for _, field := range newFields {
		norm := attr.Normalize(field)
		if norm == "" || desc.HasColumn(norm) {
			continue
		}
		colType := InferColumnType(set.Values(field))
		if target, ok := similarColumn(desc, field, colType, syn); ok {
			remap[field] = target
			e.log.Info("column add suppressed, remapping", "table", table, "field", field, "column", target)
			continue
		}
		ddl := fmt.Sprintf("ALTER TABLE %q ADD COLUMN %q %s", table, norm, colType)
		if err := e.db.WithContext(ctx).Exec(ddl).Error; err != nil {
			if isDuplicateColumn(err) {
				continue
			}
			return nil, types.Tag(types.KindSchema, fmt.Errorf("add column %q.%q: %w", table, norm, err))
		}
		e.log.Info("column added", "table", table, "column", norm, "type", colType)
		added = true
	}
	if added {
		if err := e.catalog.Refresh(ctx); err != nil {
			return nil, types.Tag(types.KindSchema, err)
		}
	}
	return remap, nil
}

// similarColumn looks for a non-primary column that is close enough in
// name and type to absorb the new field.
func similarColumn(desc catalog.Table, field, fieldType string, syn *attr.Synonyms) (string, bool) {
	for _, col := range desc.Columns {
		if col.IsPrimary {
			continue
		}
		if attr.NameSimilarity(field, col.Name, syn) >= 0.8 &&
			attr.TypeCompatibility(fieldType, col.Type) >= 0.7 {
			return col.Name, true
		}
	}
	return "", false
}

// EnsureJSONBColumn guarantees the overflow column used by jsonb
// evolution.
func (e *Executor) EnsureJSONBColumn(ctx context.Context, table string) error {
	desc, ok := e.catalog.Table(table)
	if ok && desc.HasColumn(extraColumn) {
		return nil
	}
	ddl := fmt.Sprintf("ALTER TABLE %q ADD COLUMN %q JSONB", table, extraColumn)
	if err := e.db.WithContext(ctx).Exec(ddl).Error; err != nil && !isDuplicateColumn(err) {
		return types.Tag(types.KindSchema, fmt.Errorf("ensure jsonb column on %q: %w", table, err))
	}
	if err := e.catalog.Refresh(ctx); err != nil {
		return types.Tag(types.KindSchema, err)
	}
	return nil
}

func isDuplicateTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P07"
	}
	return strings.Contains(err.Error(), "already exists")
}

func isDuplicateColumn(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42701"
	}
	return strings.Contains(err.Error(), "duplicate column")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
