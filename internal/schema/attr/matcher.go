package attr

import (
	"strings"

	"github.com/yungbote/datavault-backend/internal/ingest/rows"
)

// DefaultThreshold is the minimum combined similarity for a regular
// attribute to claim an existing column.
const DefaultThreshold = 0.6

// Column describes one existing table column as the matcher sees it.
type Column struct {
	Name      string
	Type      string
	IsPrimary bool
}

// MatchResult is the outcome of matching one file's attributes against
// one existing table.
type MatchResult struct {
	// Mapping maps new attribute -> existing column name.
	Mapping map[string]string
	// NewFields lists attributes with no acceptable match, in arrival
	// order.
	NewFields []string
	// Score is matched regular attributes over total regular
	// attributes. When either side carries only ID attributes it is
	// 1.0 if anything mapped and 0.0 otherwise.
	Score float64
}

// Match maps newAttrs onto the existing columns. ID attributes match
// through their own rules (exact normalized name, then lone-ID on both
// sides, then containment); regular attributes match greedily in
// arrival order against unclaimed columns using the combined
// similarity score.
func Match(newAttrs []string, samples map[string]rows.Value, existing []Column, syn *Synonyms, threshold float64) MatchResult {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	res := MatchResult{Mapping: map[string]string{}}

	var newIDs, newRegular []string
	for _, a := range newAttrs {
		if IsID(a) {
			newIDs = append(newIDs, a)
		} else {
			newRegular = append(newRegular, a)
		}
	}
	var existingIDs, existingRegular []Column
	for _, c := range existing {
		if IsID(c.Name) {
			existingIDs = append(existingIDs, c)
		} else {
			existingRegular = append(existingRegular, c)
		}
	}

	claimed := map[string]bool{}
	for _, newID := range newIDs {
		if target, ok := IDTarget(newID, len(newIDs) == 1, existingIDs, claimed); ok {
			res.Mapping[newID] = target
			claimed[Normalize(target)] = true
		} else {
			res.NewFields = append(res.NewFields, newID)
		}
	}

	matchedRegular := 0
	for _, newAttr := range newRegular {
		sample, haveSample := samples[newAttr]
		best := ""
		bestScore := 0.0
		for _, col := range existingRegular {
			if claimed[Normalize(col.Name)] {
				continue
			}
			score := Similarity(newAttr, col.Name, sample, haveSample, col.Type, syn)
			if score > bestScore {
				bestScore = score
				best = col.Name
			}
		}
		if best != "" && bestScore >= threshold {
			res.Mapping[newAttr] = best
			claimed[Normalize(best)] = true
			matchedRegular++
		} else {
			res.NewFields = append(res.NewFields, newAttr)
		}
	}

	if len(newRegular) > 0 && len(existingRegular) > 0 {
		res.Score = float64(matchedRegular) / float64(len(newRegular))
	} else if len(res.Mapping) > 0 {
		// Nothing the regular attributes could have matched; the ID
		// match alone decides whether this is the same entity.
		res.Score = 1.0
	}
	return res
}

// IDTarget finds the existing ID column a new ID attribute maps to:
// exact normalized name, then lone-ID on both sides, then containment
// on the id token. Columns already claimed by an earlier ID attribute
// are skipped so no column is mapped twice.
func IDTarget(newID string, loneNew bool, existingIDs []Column, claimed map[string]bool) (string, bool) {
	norm := Normalize(newID)
	for _, col := range existingIDs {
		if normExisting := Normalize(col.Name); normExisting == norm && !claimed[normExisting] {
			return col.Name, true
		}
	}
	// A lone ID on each side is taken as the same concept.
	if loneNew && len(existingIDs) == 1 && !claimed[Normalize(existingIDs[0].Name)] {
		return existingIDs[0].Name, true
	}
	for _, col := range existingIDs {
		normExisting := Normalize(col.Name)
		if claimed[normExisting] {
			continue
		}
		if strings.Contains(norm, "id") && strings.Contains(normExisting, "id") {
			if strings.Contains(norm, normExisting) || strings.Contains(normExisting, norm) {
				return col.Name, true
			}
		}
	}
	return "", false
}

// SampleValues picks the first record's values for type inference.
func SampleValues(set rows.Set) map[string]rows.Value {
	out := map[string]rows.Value{}
	if len(set.Records) == 0 {
		return out
	}
	for attr, v := range set.Records[0] {
		out[attr] = v
	}
	return out
}
