package sqlexec

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/datavault-backend/internal/ingest/rows"
	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/schema/attr"
	"github.com/yungbote/datavault-backend/internal/schema/catalog"
)

func newTestExecutor(t *testing.T) (*Executor, *gorm.DB, *catalog.Catalog) {
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
	return New(db, cat, log), db, cat
}

func productSet() rows.Set {
	return rows.Set{
		Attributes: []string{"id", "name", "price"},
		Records: []rows.Row{
			{"id": rows.Int(1), "name": rows.Text("Widget"), "price": rows.Real(9.99)},
			{"id": rows.Int(2), "name": rows.Text("Gadget"), "price": rows.Real(19.5)},
		},
	}
}

func TestInferColumnType(t *testing.T) {
	cases := []struct {
		name   string
		values []rows.Value
		want   string
	}{
		{"integers", []rows.Value{rows.Int(1), rows.Int(2)}, "INTEGER"},
		{"mixed numeric", []rows.Value{rows.Int(1), rows.Real(2.5)}, "NUMERIC"},
		{"booleans", []rows.Value{rows.Bool(true)}, "BOOLEAN"},
		{"short strings", []rows.Value{rows.Text("abc"), rows.Text("defgh")}, "VARCHAR(50)"},
		{"rounds to next 50", []rows.Value{rows.Text(strings.Repeat("x", 60))}, "VARCHAR(100)"},
		{"caps at 1000", []rows.Value{rows.Text(strings.Repeat("x", 990))}, "VARCHAR(1000)"},
		{"long text", []rows.Value{rows.Text(strings.Repeat("x", 1200))}, "TEXT"},
		{"timestamps", []rows.Value{rows.Text("2024-01-15T10:00:00Z")}, "TIMESTAMP"},
		{"all null", []rows.Value{rows.Null(), rows.Null()}, "TEXT"},
		{"conflicting", []rows.Value{rows.Int(1), rows.Text("abc")}, "TEXT"},
	}
	for _, c := range cases {
		if got := InferColumnType(c.values); got != c.want {
			t.Fatalf("%s: want=%q got=%q", c.name, c.want, got)
		}
	}
}

func TestTableName(t *testing.T) {
	if got := TableName([]string{"id", "Name", "Price ($)", "stock"}); got != "table_id_name_price" {
		t.Fatalf("table name: want=%q got=%q", "table_id_name_price", got)
	}
	long := TableName([]string{strings.Repeat("a", 40), strings.Repeat("b", 40)})
	if len(long) > 50 {
		t.Fatalf("table name exceeds 50 chars: %d", len(long))
	}
}

func TestCreateTableAndInsertIdempotent(t *testing.T) {
	e, db, _ := newTestExecutor(t)
	ctx := context.Background()
	set := productSet()

	pk, err := e.CreateTable(ctx, "products", set, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if pk != "id" {
		t.Fatalf("pk: want=id got=%q", pk)
	}

	stats, err := e.InsertRows(ctx, "products", set, nil, nil)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if stats.Attempted != 2 || stats.Inserted != 2 {
		t.Fatalf("first insert: want attempted=2 inserted=2 got %+v", stats)
	}

	// Same file again: attempted stays, conflicts suppress inserts.
	stats, err = e.InsertRows(ctx, "products", set, nil, nil)
	if err != nil {
		t.Fatalf("re-insert: %v", err)
	}
	if stats.Attempted != 2 || stats.Inserted != 0 {
		t.Fatalf("re-insert: want attempted=2 inserted=0 got %+v", stats)
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM "products"`).Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("row count: want=2 got=%d", count)
	}
}

func TestCreateTableHonorsRequestedPrimaryKey(t *testing.T) {
	e, _, cat := newTestExecutor(t)
	ctx := context.Background()

	pk, err := e.CreateTable(ctx, "products", productSet(), "name")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if pk != "name" {
		t.Fatalf("pk: want=name got=%q", pk)
	}
	tab, ok := cat.Table("products")
	if !ok {
		t.Fatalf("descriptor missing")
	}
	col, _ := tab.Column("name")
	if !col.IsPrimary {
		t.Fatalf("requested column not primary: %+v", col)
	}

	// A request naming no attribute falls back to the first ID.
	pk, err = e.CreateTable(ctx, "fallback", productSet(), "serial")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if pk != "id" {
		t.Fatalf("fallback pk: want=id got=%q", pk)
	}
}

func TestCreateTableTwiceIsBenign(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	ctx := context.Background()
	if _, err := e.CreateTable(ctx, "products", productSet(), ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.CreateTable(ctx, "products", productSet(), ""); err != nil {
		t.Fatalf("second create should be benign: %v", err)
	}
}

func TestInsertSynthesizesIntegerPK(t *testing.T) {
	e, db, cat := newTestExecutor(t)
	ctx := context.Background()
	if err := db.Exec(`CREATE TABLE "events" ("id" INTEGER PRIMARY KEY, "label" VARCHAR(50))`).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := cat.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	set := rows.Set{
		Attributes: []string{"label"},
		Records:    []rows.Row{{"label": rows.Text("a")}, {"label": rows.Text("b")}},
	}
	stats, err := e.InsertRows(ctx, "events", set, nil, nil)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if stats.Inserted != 2 {
		t.Fatalf("inserted: want=2 got=%d", stats.Inserted)
	}
	var maxID int64
	if err := db.Raw(`SELECT MAX("id") FROM "events"`).Scan(&maxID).Error; err != nil {
		t.Fatalf("max: %v", err)
	}
	if maxID != 2 {
		t.Fatalf("synthesized ids should be dense from 1: max want=2 got=%d", maxID)
	}

	// Second file continues after the current maximum.
	if _, err := e.InsertRows(ctx, "events", set, nil, nil); err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if err := db.Raw(`SELECT MAX("id") FROM "events"`).Scan(&maxID).Error; err != nil {
		t.Fatalf("max: %v", err)
	}
	if maxID != 4 {
		t.Fatalf("max after second insert: want=4 got=%d", maxID)
	}
}

func TestAddColumnsRemapsSimilar(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	ctx := context.Background()
	if _, err := e.CreateTable(ctx, "products", productSet(), ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	set := rows.Set{
		Attributes: []string{"product_name"},
		Records:    []rows.Row{{"product_name": rows.Text("Sprocket")}},
	}
	remap, err := e.AddColumns(ctx, "products", []string{"product_name"}, set, attr.DefaultSynonyms())
	if err != nil {
		t.Fatalf("add columns: %v", err)
	}
	if got := remap["product_name"]; got != "name" {
		t.Fatalf("similar column should remap: want=name got=%q", got)
	}
}

func TestAddColumnsAndJSONBOverflow(t *testing.T) {
	e, db, cat := newTestExecutor(t)
	ctx := context.Background()
	if _, err := e.CreateTable(ctx, "products", productSet(), ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	set := rows.Set{
		Attributes: []string{"id", "name", "price", "origin", "vendor_note"},
		Records: []rows.Row{{
			"id":          rows.Int(7),
			"name":        rows.Text("Cog"),
			"price":       rows.Real(3.5),
			"origin":      rows.Text("NO"),
			"vendor_note": rows.Text("fragile"),
		}},
	}
	if _, err := e.AddColumns(ctx, "products", []string{"origin"}, set, attr.DefaultSynonyms()); err != nil {
		t.Fatalf("add columns: %v", err)
	}
	tab, _ := cat.Table("products")
	if !tab.HasColumn("origin") {
		t.Fatalf("origin column missing after alter")
	}

	if err := e.EnsureJSONBColumn(ctx, "products"); err != nil {
		t.Fatalf("ensure jsonb: %v", err)
	}
	stats, err := e.InsertRows(ctx, "products", set, map[string]string{"id": "id", "name": "name", "price": "price", "origin": "origin"}, nil)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if stats.Inserted != 1 {
		t.Fatalf("inserted: want=1 got=%d", stats.Inserted)
	}

	var extra string
	if err := db.Raw(`SELECT "extra" FROM "products" WHERE "id" = 7`).Scan(&extra).Error; err != nil {
		t.Fatalf("read extra: %v", err)
	}
	if want := fmt.Sprintf(`{%q:%q}`, "vendor_note", "fragile"); extra != want {
		t.Fatalf("extra: want=%s got=%s", want, extra)
	}
}
