package sqlexec

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/datavault-backend/internal/ingest/rows"
	"github.com/yungbote/datavault-backend/internal/schema/attr"
	"github.com/yungbote/datavault-backend/internal/schema/catalog"
	"github.com/yungbote/datavault-backend/internal/types"
)

type InsertStats struct {
	Attempted int
	Inserted  int
}

// columnPlan binds one physical column to the source attribute feeding
// it. Source is "" for a synthesized primary key.
type columnPlan struct {
	Column string
	Source string
}

// InsertRows writes the set into table. mapping routes source
// attributes to existing columns; attributes without a physical column
// land in the jsonb overflow column when the table has one and are
// dropped otherwise. Each batch of 100 rows runs in its own
// transaction; a missing integer primary key is synthesized from
// MAX(pk)+1 inside a unique-violation retry loop, a missing
// non-integer key gets a UUID.
func (e *Executor) InsertRows(ctx context.Context, table string, set rows.Set, mapping map[string]string, newFields []string) (InsertStats, error) {
	var stats InsertStats
	if set.Empty() {
		return stats, nil
	}

	desc, ok := e.catalog.Table(table)
	if !ok {
		if err := e.catalog.Refresh(ctx); err != nil {
			return stats, types.Tag(types.KindInsert, err)
		}
		if desc, ok = e.catalog.Table(table); !ok {
			return stats, types.Tag(types.KindInsert, fmt.Errorf("unknown table %q", table))
		}
	}

	// Columns for new fields were added before insert; presence in the
	// descriptor decides routing, so newFields needs no separate pass.
	plan, extraAttrs := buildPlan(desc, set.Attributes, mapping)
	hasExtra := desc.HasColumn(extraColumn) && len(extraAttrs) > 0
	if len(extraAttrs) > 0 && !hasExtra {
		e.log.Debug("attributes without columns dropped", "table", table, "count", len(extraAttrs))
	}

	pk, synthesize, pkNumeric := pkSynthesis(desc, plan)
	columns := make([]string, 0, len(plan)+2)
	if synthesize {
		columns = append(columns, pk)
	}
	for _, p := range plan {
		columns = append(columns, p.Column)
	}
	if hasExtra {
		columns = append(columns, extraColumn)
	}
	if len(columns) == 0 {
		return stats, types.Tag(types.KindInsert, fmt.Errorf("table %q: no insertable columns", table))
	}

	conflict := ""
	if pk != "" && contains(columns, pk) {
		conflict = fmt.Sprintf(` ON CONFLICT (%q) DO NOTHING`, pk)
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	prefix := fmt.Sprintf("INSERT INTO %q (%s) VALUES ", table, strings.Join(quoted, ", "))

	for start := 0; start < len(set.Records); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(set.Records) {
			end = len(set.Records)
		}
		batch := set.Records[start:end]
		inserted, err := e.insertBatch(ctx, table, prefix, conflict, batch, plan, extraAttrs, hasExtra, pk, synthesize, pkNumeric)
		if err != nil {
			return stats, err
		}
		stats.Attempted += len(batch)
		stats.Inserted += inserted
	}

	e.log.Info("rows inserted", "table", table, "attempted", stats.Attempted, "inserted", stats.Inserted)
	return stats, nil
}

func (e *Executor) insertBatch(ctx context.Context, table, prefix, conflict string, batch []rows.Row, plan []columnPlan, extraAttrs []string, hasExtra bool, pk string, synthesize, pkNumeric bool) (int, error) {
	for attempt := 1; ; attempt++ {
		var base int64
		if synthesize && pkNumeric {
			if err := e.db.WithContext(ctx).
				Raw(fmt.Sprintf(`SELECT COALESCE(MAX(%q), 0) FROM %q`, pk, table)).
				Scan(&base).Error; err != nil {
				return 0, types.Tag(types.KindInsert, fmt.Errorf("read max %q.%q: %w", table, pk, err))
			}
		}

		var (
			groups []string
			args   []any
		)
		for i, row := range batch {
			var ph []string
			if synthesize {
				ph = append(ph, "?")
				if pkNumeric {
					args = append(args, base+int64(i)+1)
				} else {
					args = append(args, uuid.NewString())
				}
			}
			for _, p := range plan {
				ph = append(ph, "?")
				args = append(args, row[p.Source].Arg())
			}
			if hasExtra {
				ph = append(ph, "?")
				blob, err := extraJSON(row, extraAttrs)
				if err != nil {
					return 0, types.Tag(types.KindInsert, err)
				}
				args = append(args, blob)
			}
			groups = append(groups, "("+strings.Join(ph, ", ")+")")
		}

		tx := e.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			return 0, types.Tag(types.KindInsert, fmt.Errorf("begin: %w", tx.Error))
		}
		res := tx.Exec(prefix+strings.Join(groups, ", ")+conflict, args...)
		if res.Error != nil {
			tx.Rollback()
			if synthesize && pkNumeric && isUniqueViolation(res.Error) && attempt < maxPKRetries {
				e.log.Warn("primary key collision, retrying batch", "table", table, "attempt", attempt)
				continue
			}
			return 0, types.Tag(types.KindInsert, fmt.Errorf("insert into %q: %w", table, res.Error))
		}
		if err := tx.Commit().Error; err != nil {
			return 0, types.Tag(types.KindInsert, fmt.Errorf("commit insert into %q: %w", table, err))
		}
		return int(res.RowsAffected), nil
	}
}

// buildPlan routes each source attribute to a physical column. The
// first source claiming a column wins; everything else overflows.
func buildPlan(desc catalog.Table, attrs []string, mapping map[string]string) ([]columnPlan, []string) {
	var plan []columnPlan
	var extras []string
	used := map[string]bool{}
	for _, a := range attrs {
		target := ""
		if mapped, ok := mapping[a]; ok {
			target = attr.Normalize(mapped)
		} else {
			target = attr.Normalize(a)
		}
		if target == "" || used[target] || !desc.HasColumn(target) {
			if target != "" && !used[target] {
				extras = append(extras, a)
			}
			continue
		}
		used[target] = true
		plan = append(plan, columnPlan{Column: target, Source: a})
	}
	return plan, extras
}

// pkSynthesis decides whether the primary key must be generated. Keys
// fed by a source column or carrying a database default need nothing.
func pkSynthesis(desc catalog.Table, plan []columnPlan) (pk string, synthesize, numeric bool) {
	pks := desc.PrimaryKeys()
	if len(pks) != 1 {
		return "", false, false
	}
	pk = pks[0]
	for _, p := range plan {
		if p.Column == pk {
			return pk, false, false
		}
	}
	col, _ := desc.Column(pk)
	if col.HasDefault {
		return pk, false, false
	}
	return pk, true, attr.TypeCompatibility(attr.TypeInteger, col.Type) >= 0.9
}

func extraJSON(row rows.Row, extraAttrs []string) (datatypes.JSON, error) {
	payload := make(map[string]any, len(extraAttrs))
	for _, a := range extraAttrs {
		if v, ok := row[a]; ok && !v.IsNull() {
			payload[attr.Normalize(a)] = v.Arg()
		}
	}
	blob, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode extra fields: %w", err)
	}
	return datatypes.JSON(blob), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
