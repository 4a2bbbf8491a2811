package rows

// Row maps attribute names to cell values.
type Row map[string]Value

// Set is the extraction result for one file: attributes in arrival
// order plus the records that carry them. Deeply nested repeating
// content (XML only) lands in Children, keyed back to the parent row
// through a parent_id column added at persist time.
type Set struct {
	Attributes []string
	Records    []Row
	Children   []ChildSet
}

// ChildSet is a nested repeating group lifted out of parent rows.
type ChildSet struct {
	Name string
	Set  Set
}

func (s Set) Empty() bool { return len(s.Records) == 0 }

// addAttr registers an attribute the first time it is seen, preserving
// arrival order across all records.
func (s *Set) addAttr(name string) {
	for _, a := range s.Attributes {
		if a == name {
			return
		}
	}
	s.Attributes = append(s.Attributes, name)
}

// Values collects the column of values for one attribute; records
// missing the attribute contribute nulls.
func (s Set) Values(attr string) []Value {
	out := make([]Value, 0, len(s.Records))
	for _, r := range s.Records {
		v, ok := r[attr]
		if !ok {
			v = Null()
		}
		out = append(out, v)
	}
	return out
}
