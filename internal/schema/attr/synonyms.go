package attr

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed synonyms.yaml
var defaultSynonymsYAML []byte

// Synonyms maps normalized attribute names to their synonym class.
type Synonyms struct {
	class map[string]string
}

// ParseSynonyms loads a class->members YAML document.
func ParseSynonyms(data []byte) (*Synonyms, error) {
	var classes map[string][]string
	if err := yaml.Unmarshal(data, &classes); err != nil {
		return nil, fmt.Errorf("parse synonym table: %w", err)
	}
	s := &Synonyms{class: make(map[string]string)}
	for name, members := range classes {
		for _, m := range members {
			s.class[Normalize(m)] = name
		}
	}
	return s, nil
}

// LoadSynonymsFile reads an operator-provided synonym table.
func LoadSynonymsFile(path string) (*Synonyms, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonym table %s: %w", path, err)
	}
	return ParseSynonyms(data)
}

var (
	defaultSynOnce sync.Once
	defaultSyn     *Synonyms
)

// DefaultSynonyms returns the embedded synonym table.
func DefaultSynonyms() *Synonyms {
	defaultSynOnce.Do(func() {
		s, err := ParseSynonyms(defaultSynonymsYAML)
		if err != nil {
			// The embedded table is part of the build; a parse failure
			// is a programming error.
			panic(err)
		}
		defaultSyn = s
	})
	return defaultSyn
}

// Class returns the synonym class of an attribute, or "".
func (s *Synonyms) Class(name string) string {
	if s == nil {
		return ""
	}
	return s.class[Normalize(name)]
}

// AreSynonyms reports whether both attributes belong to the same class.
func (s *Synonyms) AreSynonyms(a, b string) bool {
	ca := s.Class(a)
	return ca != "" && ca == s.Class(b)
}
