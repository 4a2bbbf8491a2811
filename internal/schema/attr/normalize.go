package attr

import (
	"regexp"
	"strings"
)

var (
	nonWordRe    = regexp.MustCompile(`[^a-z0-9_]+`)
	multiScoreRe = regexp.MustCompile(`_+`)
	camelRe      = regexp.MustCompile(`[a-z0-9]+|[A-Z][a-z0-9]*`)
)

// Normalize lowercases an attribute name, collapses anything that is
// not [a-z0-9_] into single underscores and strips the ends:
// "Email Address" -> "email_address".
func Normalize(name string) string {
	if name == "" {
		return ""
	}
	s := strings.ToLower(name)
	s = nonWordRe.ReplaceAllString(s, "_")
	s = multiScoreRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// IsID reports whether an attribute names an identifier: id, identifier,
// key, primary_key, pk, anything ending in _id or starting with id_.
func IsID(name string) bool {
	if name == "" {
		return false
	}
	n := Normalize(name)
	switch n {
	case "id", "identifier", "key", "primary_key", "pk":
		return true
	}
	return strings.HasSuffix(n, "_id") || strings.HasPrefix(n, "id_")
}

// Tokenize splits on underscores and camelCase humps and lowercases
// the parts: "productName" -> {product, name}.
func Tokenize(name string) map[string]bool {
	tokens := map[string]bool{}
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		for _, tok := range camelRe.FindAllString(part, -1) {
			tokens[strings.ToLower(tok)] = true
		}
	}
	return tokens
}

// TokenOverlap is the Jaccard ratio of the two token sets.
func TokenOverlap(a, b string) float64 {
	ta := Tokenize(Normalize(a))
	tb := Tokenize(Normalize(b))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	union := len(tb)
	for tok := range ta {
		if tb[tok] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
