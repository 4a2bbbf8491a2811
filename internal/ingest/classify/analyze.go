package classify

import (
	"encoding/xml"
	"strings"
)

// analyzeJSON scores a decoded JSON-like payload. The signals and
// weights mirror the structural heuristics of the routing layer: flat
// uniform collections look relational, deep or divergent ones do not.
func analyzeJSON(s *scorer, payload any) {
	if flat(payload, 0) {
		s.addSQL(4, "flat structure")
	} else if nestedDepth(payload, 0) > 0 {
		s.addNoSQL(4, "nested structure")
	}

	if list, ok := payload.([]any); ok && len(list) > 0 {
		if _, isObj := list[0].(map[string]any); isObj {
			if identicalKeys(list) {
				s.addSQL(4, "array of objects with identical keys")
			} else {
				s.addNoSQL(3, "array of objects with divergent keys")
			}
		}
	}

	if hasRelationalPatterns(payload) {
		s.addSQL(1, "relational key patterns")
	}
	if hasDynamicKeys(payload) {
		s.addNoSQL(2, "dynamic keys across objects")
	}
	if schemaConsistent(payload) {
		s.addSQL(2, "consistent schema across entries")
	} else {
		s.addNoSQL(2, "inconsistent schema across entries")
	}
	if mostlyPrimitive(payload) {
		s.addSQL(1, "mostly primitive values")
	}
	if hasLargeTextFields(payload, 500) {
		s.addNoSQL(2, "large text fields")
	}
}

type xmlElement struct {
	XMLName xml.Name
	Attrs   []xml.Attr   `xml:",any,attr"`
	Nodes   []xmlElement `xml:",any"`
}

func analyzeXML(s *scorer, root xmlElement) {
	if xmlDepth(root, 0) > 2 {
		s.addNoSQL(3, "deep xml nesting")
	}
	children := root.Nodes
	if len(children) > 1 {
		sameTag := true
		for _, c := range children[1:] {
			if c.XMLName.Local != children[0].XMLName.Local {
				sameTag = false
				break
			}
		}
		if sameTag {
			s.addSQL(3, "repeating elements with identical tags")
		}
		if uniformAttrs(children) {
			s.addSQL(2, "uniform attributes across elements")
		}
	}
}

func uniformAttrs(children []xmlElement) bool {
	first := attrSet(children[0])
	for _, c := range children[1:] {
		set := attrSet(c)
		if len(set) != len(first) {
			return false
		}
		for k := range set {
			if !first[k] {
				return false
			}
		}
	}
	return true
}

func attrSet(el xmlElement) map[string]bool {
	out := map[string]bool{}
	for _, a := range el.Attrs {
		out[a.Name.Local] = true
	}
	return out
}

func xmlDepth(el xmlElement, depth int) int {
	if len(el.Nodes) == 0 {
		return depth
	}
	max := depth
	for _, c := range el.Nodes {
		if d := xmlDepth(c, depth+1); d > max {
			max = d
		}
	}
	return max
}

// flat reports whether the payload has no container values below the
// first level.
func flat(payload any, depth int) bool {
	if depth > 1 {
		return false
	}
	switch v := payload.(type) {
	case map[string]any:
		for _, item := range v {
			if isContainer(item) {
				return false
			}
		}
		return true
	case []any:
		for _, item := range v {
			if isContainer(item) {
				return false
			}
		}
		return true
	}
	return true
}

func nestedDepth(payload any, depth int) int {
	switch v := payload.(type) {
	case map[string]any:
		max := depth
		for _, item := range v {
			if d := nestedDepth(item, depth+1); d > max {
				max = d
			}
		}
		return max
	case []any:
		max := depth
		for _, item := range v {
			if d := nestedDepth(item, depth+1); d > max {
				max = d
			}
		}
		return max
	}
	return depth
}

var relationalKeyPatterns = []string{"id", "_id", "id_", "key", "_key", "key_", "pk", "fk", "foreign"}

func hasRelationalPatterns(payload any) bool {
	switch v := payload.(type) {
	case map[string]any:
		for key, item := range v {
			lower := strings.ToLower(key)
			for _, p := range relationalKeyPatterns {
				if strings.Contains(lower, p) {
					return true
				}
			}
			if isContainer(item) && hasRelationalPatterns(item) {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if isContainer(item) && hasRelationalPatterns(item) {
				return true
			}
		}
	}
	return false
}

func hasDynamicKeys(payload any) bool {
	list, ok := payload.([]any)
	if !ok || len(list) < 2 {
		return false
	}
	var first map[string]bool
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return false
		}
		set := keySet(obj)
		if i == 0 {
			first = set
			continue
		}
		if !sameKeys(first, set) {
			return true
		}
	}
	return false
}

func schemaConsistent(payload any) bool {
	list, ok := payload.([]any)
	if !ok || len(list) < 2 {
		return true
	}
	var first map[string]bool
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return true
		}
		set := keySet(obj)
		if i == 0 {
			first = set
			continue
		}
		if !sameKeys(first, set) {
			return false
		}
	}
	return true
}

func identicalKeys(list []any) bool {
	var first map[string]bool
	seen := false
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		set := keySet(obj)
		if !seen {
			first = set
			seen = true
			continue
		}
		if !sameKeys(first, set) {
			return false
		}
	}
	return true
}

func mostlyPrimitive(payload any) bool {
	var values []any
	switch v := payload.(type) {
	case map[string]any:
		for _, item := range v {
			values = append(values, item)
		}
	case []any:
		values = v
	default:
		return !isContainer(payload)
	}
	if len(values) == 0 {
		return false
	}
	primitives := 0
	for _, item := range values {
		if !isContainer(item) {
			primitives++
		}
	}
	return float64(primitives)/float64(len(values)) > 0.8
}

var largeTextKeys = []string{"content", "description", "html", "text", "body", "message"}

func hasLargeTextFields(payload any, threshold int) bool {
	switch v := payload.(type) {
	case map[string]any:
		for key, item := range v {
			lower := strings.ToLower(key)
			if str, ok := item.(string); ok && len(str) > threshold {
				for _, p := range largeTextKeys {
					if strings.Contains(lower, p) {
						return true
					}
				}
			}
			if isContainer(item) && hasLargeTextFields(item, threshold) {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if isContainer(item) && hasLargeTextFields(item, threshold) {
				return true
			}
		}
	}
	return false
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func keySet(obj map[string]any) map[string]bool {
	out := make(map[string]bool, len(obj))
	for k := range obj {
		out[k] = true
	}
	return out
}

func sameKeys(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
