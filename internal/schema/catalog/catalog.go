package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/schema/attr"
)

// jobsTable is internal bookkeeping and never a schema-evolution
// candidate.
const jobsTable = "schema_jobs"

type Column struct {
	Name       string
	Type       string
	Nullable   bool
	IsPrimary  bool
	HasDefault bool
}

type Table struct {
	Name    string
	Columns []Column
}

func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

func (t *Table) PrimaryKeys() []string {
	var out []string
	for _, c := range t.Columns {
		if c.IsPrimary {
			out = append(out, c.Name)
		}
	}
	return out
}

// MatcherColumns adapts the descriptor for the attribute matcher.
func (t *Table) MatcherColumns() []attr.Column {
	out := make([]attr.Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, attr.Column{Name: c.Name, Type: c.Type, IsPrimary: c.IsPrimary})
	}
	return out
}

// Catalog is the in-process cache of table descriptors plus an
// inverted index from normalized attribute names to the tables that
// carry them. Reads take the read lock; Refresh takes the write lock.
type Catalog struct {
	db  *gorm.DB
	log *logger.Logger

	mu       sync.RWMutex
	tables   map[string]*Table
	inverted map[string]map[string]bool
}

func New(db *gorm.DB, log *logger.Logger) *Catalog {
	return &Catalog{
		db:       db,
		log:      log.With("service", "SchemaCatalog"),
		tables:   map[string]*Table{},
		inverted: map[string]map[string]bool{},
	}
}

// Refresh re-reads every table descriptor from the database. It runs
// after each DDL change and at startup.
func (c *Catalog) Refresh(ctx context.Context) error {
	migrator := c.db.WithContext(ctx).Migrator()
	names, err := migrator.GetTables()
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	tables := make(map[string]*Table, len(names))
	inverted := map[string]map[string]bool{}
	for _, name := range names {
		colTypes, err := migrator.ColumnTypes(name)
		if err != nil {
			return fmt.Errorf("describe table %q: %w", name, err)
		}
		table := &Table{Name: name}
		for _, ct := range colTypes {
			col := Column{Name: ct.Name()}
			if full, ok := ct.ColumnType(); ok && full != "" {
				col.Type = full
			} else {
				col.Type = ct.DatabaseTypeName()
			}
			if nullable, ok := ct.Nullable(); ok {
				col.Nullable = nullable
			}
			if pk, ok := ct.PrimaryKey(); ok {
				col.IsPrimary = pk
			}
			if _, ok := ct.DefaultValue(); ok {
				col.HasDefault = true
			}
			table.Columns = append(table.Columns, col)

			if name == jobsTable || attr.IsID(col.Name) {
				continue
			}
			norm := attr.Normalize(col.Name)
			if norm == "" {
				continue
			}
			if inverted[norm] == nil {
				inverted[norm] = map[string]bool{}
			}
			inverted[norm][name] = true
		}
		tables[name] = table
	}

	c.mu.Lock()
	c.tables = tables
	c.inverted = inverted
	c.mu.Unlock()

	c.log.Debug("catalog refreshed", "tables", len(tables), "indexed_attributes", len(inverted))
	return nil
}

// Table returns a copy of one descriptor.
func (c *Catalog) Table(name string) (Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[name]
	if !ok {
		return Table{}, false
	}
	out := Table{Name: t.Name, Columns: append([]Column(nil), t.Columns...)}
	return out, true
}

func (c *Catalog) HasTable(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tables[name]
	return ok
}

// TableNames lists cached tables sorted by name, excluding bookkeeping.
func (c *Catalog) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.tables))
	for name := range c.tables {
		if name == jobsTable {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// TablesWithAttribute returns the tables carrying a normalized
// non-ID attribute name.
func (c *Catalog) TablesWithAttribute(normalized string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set := c.inverted[normalized]
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
