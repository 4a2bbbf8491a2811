package attr

import (
	"regexp"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/yungbote/datavault-backend/internal/ingest/rows"
)

// Logical column types used for matching and DDL generation.
const (
	TypeBoolean   = "BOOLEAN"
	TypeInteger   = "INTEGER"
	TypeNumeric   = "NUMERIC"
	TypeVarchar   = "VARCHAR"
	TypeText      = "TEXT"
	TypeTimestamp = "TIMESTAMP"
)

var dateLikeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// TypeOf infers the logical column type of a single value.
func TypeOf(v rows.Value) string {
	switch v.Kind() {
	case rows.KindNull:
		return TypeText
	case rows.KindBool:
		return TypeBoolean
	case rows.KindInt:
		return TypeInteger
	case rows.KindReal:
		return TypeNumeric
	case rows.KindTime:
		return TypeTimestamp
	default:
		s := v.Text()
		if dateLikeRe.MatchString(s) {
			return TypeTimestamp
		}
		if len(s) > 255 {
			return TypeText
		}
		return TypeVarchar
	}
}

var (
	numericTypes = map[string]bool{
		"INTEGER": true, "BIGINT": true, "SMALLINT": true, "NUMERIC": true,
		"DECIMAL": true, "REAL": true, "DOUBLE PRECISION": true, "FLOAT": true,
		"INT": true, "INT4": true, "INT8": true,
	}
	textTypes = map[string]bool{
		"VARCHAR": true, "TEXT": true, "CHAR": true, "CHARACTER VARYING": true,
		"CHARACTER": true, "BPCHAR": true,
	}
	datetimeTypes = map[string]bool{
		"TIMESTAMP": true, "TIMESTAMPTZ": true, "DATE": true, "TIME": true,
		"DATETIME": true, "TIMESTAMP WITHOUT TIME ZONE": true,
		"TIMESTAMP WITH TIME ZONE": true,
	}
)

// CanonicalType strips length modifiers and upper-cases a database
// type name: "varchar(150)" -> "VARCHAR".
func CanonicalType(dbType string) string {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// TypeCompatibility scores how well a new value's type fits an existing
// column type. Exact 1.0, same numeric or text family 0.9, same
// datetime family 0.8, otherwise 0.3.
func TypeCompatibility(newType, existingType string) float64 {
	a := CanonicalType(newType)
	b := CanonicalType(existingType)
	switch {
	case a == b:
		return 1.0
	case numericTypes[a] && numericTypes[b]:
		return 0.9
	case textTypes[a] && textTypes[b]:
		return 0.9
	case datetimeTypes[a] && datetimeTypes[b]:
		return 0.8
	}
	return 0.3
}

// NameSimilarity scores two attribute names: exact normalized match
// 1.0, same synonym class 0.95, otherwise the best of sequence
// similarity and down-weighted token overlap.
func NameSimilarity(a, b string, syn *Synonyms) float64 {
	na := Normalize(a)
	nb := Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	if syn.AreSynonyms(a, b) {
		return 0.95
	}
	seq := 0.0
	if s, err := edlib.StringsSimilarity(na, nb, edlib.Levenshtein); err == nil {
		seq = float64(s)
	}
	overlap := TokenOverlap(a, b) * 0.8
	if overlap > seq {
		return overlap
	}
	return seq
}

// Similarity is the combined score: 70% name, 30% type compatibility.
// With an existing type but no sample value the type part is a neutral
// 0.7; with no existing type it is 1.0.
func Similarity(newAttr, existingAttr string, sample rows.Value, haveSample bool, existingType string, syn *Synonyms) float64 {
	name := NameSimilarity(newAttr, existingAttr, syn)
	typeScore := 1.0
	if existingType != "" {
		if haveSample && !sample.IsNull() {
			typeScore = TypeCompatibility(TypeOf(sample), existingType)
		} else {
			typeScore = 0.7
		}
	}
	return 0.7*name + 0.3*typeScore
}
