package evolve

import (
	"fmt"
	"sort"

	"github.com/yungbote/datavault-backend/internal/ingest/rows"
	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/schema/attr"
	"github.com/yungbote/datavault-backend/internal/schema/catalog"
	"github.com/yungbote/datavault-backend/internal/types"
)

const (
	// candidateThreshold is the looser similarity used only for
	// candidate discovery.
	candidateThreshold = 0.4
	topCandidates      = 3
)

// Decision is the routing verdict for one file's attribute set.
type Decision struct {
	Decision   string
	Table      string
	Mapping    map[string]string
	NewFields  []string
	MatchRatio float64
	Reason     string
}

// Engine decides whether incoming rows join an existing table, evolve
// one, or get a table of their own. It only reads the catalog; DDL is
// the executor's business.
type Engine struct {
	catalog *catalog.Catalog
	syn     *attr.Synonyms
	log     *logger.Logger
}

func New(cat *catalog.Catalog, syn *attr.Synonyms, log *logger.Logger) *Engine {
	return &Engine{catalog: cat, syn: syn, log: log.With("service", "SchemaEvolution")}
}

// Threshold is 0.6 for narrow attribute sets and 0.8 once a file
// carries ten or more attributes.
func Threshold(numAttributes int) float64 {
	if numAttributes < 10 {
		return 0.6
	}
	return 0.8
}

// Decide runs candidate retrieval, evaluates the top candidates with
// the full matcher and applies the decision rules.
func (e *Engine) Decide(set rows.Set) Decision {
	attrs := set.Attributes
	if len(attrs) == 0 {
		return newTableDecision(attrs, "no attributes")
	}

	candidates := e.candidates(attrs)
	if len(candidates) == 0 {
		return newTableDecision(attrs, "no candidate tables")
	}
	if len(candidates) > topCandidates {
		candidates = candidates[:topCandidates]
	}

	threshold := Threshold(len(attrs))
	samples := attr.SampleValues(set)

	best := Decision{MatchRatio: -1}
	for _, cand := range candidates {
		desc, ok := e.catalog.Table(cand.table)
		if !ok {
			continue
		}
		res := attr.Match(attrs, samples, desc.MatcherColumns(), e.syn, attr.DefaultThreshold)
		e.log.Debug("candidate evaluated",
			"table", cand.table, "hits", cand.hits, "match_ratio", res.Score,
			"mapped", len(res.Mapping), "new_fields", len(res.NewFields))
		if res.Score > best.MatchRatio {
			best = Decision{
				Table:      cand.table,
				Mapping:    res.Mapping,
				NewFields:  res.NewFields,
				MatchRatio: res.Score,
			}
		}
	}
	if best.MatchRatio < 0 {
		return newTableDecision(attrs, "no evaluable candidates")
	}

	numNew := len(best.NewFields)
	switch {
	case best.MatchRatio >= threshold && numNew == 0:
		best.Decision = types.DecisionSameTable
		best.Reason = fmt.Sprintf("match %.0f%% with no new fields", best.MatchRatio*100)
	case best.MatchRatio >= 0.5 && numNew >= 1 && numNew <= 3:
		best.Decision = types.DecisionEvolvedTable
		best.Reason = fmt.Sprintf("match %.0f%% with %d new fields", best.MatchRatio*100, numNew)
	case best.MatchRatio >= 0.5 && numNew > 3:
		best.Decision = types.DecisionEvolvedTableJSONB
		best.Reason = fmt.Sprintf("match %.0f%% with %d new fields, overflowing to jsonb", best.MatchRatio*100, numNew)
	default:
		ratio := best.MatchRatio
		best = newTableDecision(attrs, fmt.Sprintf("best match %.0f%% below threshold %.0f%%", ratio*100, threshold*100))
	}

	e.log.Info("schema decision",
		"decision", best.Decision, "table", best.Table,
		"match_ratio", best.MatchRatio, "new_fields", len(best.NewFields), "reason", best.Reason)
	return best
}

func newTableDecision(attrs []string, reason string) Decision {
	return Decision{
		Decision:  types.DecisionNewTable,
		Mapping:   map[string]string{},
		NewFields: append([]string(nil), attrs...),
		Reason:    reason,
	}
}

type candidate struct {
	table string
	hits  int
}

// candidates counts, per table, how many attributes find a home there:
// exact hits through the inverted index, a semantic pass over every
// cached descriptor, and an ID pass so bare-ID tables stay reachable.
func (e *Engine) candidates(attrs []string) []candidate {
	var regular, ids []string
	for _, a := range attrs {
		if attr.IsID(a) {
			ids = append(ids, a)
		} else {
			regular = append(regular, a)
		}
	}

	matched := map[string]map[string]bool{}
	mark := func(table, norm string) {
		if matched[table] == nil {
			matched[table] = map[string]bool{}
		}
		matched[table][norm] = true
	}

	for _, a := range regular {
		norm := attr.Normalize(a)
		for _, table := range e.catalog.TablesWithAttribute(norm) {
			mark(table, norm)
		}
	}

	tables := e.catalog.TableNames()
	for _, a := range regular {
		norm := attr.Normalize(a)
		for _, table := range tables {
			if matched[table][norm] {
				continue
			}
			desc, ok := e.catalog.Table(table)
			if !ok {
				continue
			}
			for _, col := range desc.Columns {
				if attr.IsID(col.Name) {
					continue
				}
				if attr.Normalize(col.Name) == norm ||
					e.syn.AreSynonyms(a, col.Name) ||
					attr.Similarity(a, col.Name, rows.Null(), false, "", e.syn) >= candidateThreshold {
					mark(table, norm)
					break
				}
			}
		}
	}

	// A table exposing only ID columns never scores in the regular
	// passes; its ID match is the only signal it can give.
	for _, a := range ids {
		norm := attr.Normalize(a)
		for _, table := range tables {
			if matched[table][norm] {
				continue
			}
			desc, ok := e.catalog.Table(table)
			if !ok {
				continue
			}
			var idCols []attr.Column
			for _, col := range desc.MatcherColumns() {
				if attr.IsID(col.Name) {
					idCols = append(idCols, col)
				}
			}
			if _, ok := attr.IDTarget(a, len(ids) == 1, idCols, nil); ok {
				mark(table, norm)
			}
		}
	}

	out := make([]candidate, 0, len(matched))
	for table, hits := range matched {
		out = append(out, candidate{table: table, hits: len(hits)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].hits != out[j].hits {
			return out[i].hits > out[j].hits
		}
		return out[i].table < out[j].table
	})
	return out
}
