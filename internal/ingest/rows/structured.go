package rows

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/datavault-backend/internal/types"
)

func fromJSON(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, types.Tag(types.KindIO, fmt.Errorf("read %s: %w", path, err))
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return Set{}, types.Tag(types.KindParse, fmt.Errorf("decode json %s: %w", path, err))
	}
	return fromPayload(payload, path)
}

func fromYAML(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, types.Tag(types.KindIO, fmt.Errorf("read %s: %w", path, err))
	}
	var payload any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return Set{}, types.Tag(types.KindParse, fmt.Errorf("decode yaml %s: %w", path, err))
	}
	return fromPayload(payload, path)
}

// fromPayload accepts a top-level array of objects (one row each) or a
// single object (one row). Anything else has no tabular reading.
func fromPayload(payload any, path string) (Set, error) {
	switch v := payload.(type) {
	case []any:
		var set Set
		for _, item := range v {
			obj, ok := toObject(item)
			if !ok {
				continue
			}
			set.Records = append(set.Records, objectRow(&set, obj))
		}
		return set, nil
	case map[string]any:
		var set Set
		set.Records = append(set.Records, objectRow(&set, v))
		return set, nil
	case map[any]any:
		obj, _ := toObject(v)
		var set Set
		set.Records = append(set.Records, objectRow(&set, obj))
		return set, nil
	default:
		return Set{}, types.Tag(types.KindParse, fmt.Errorf("%s: top-level value is neither object nor array of objects", path))
	}
}

// toObject normalizes map shapes; yaml may produce map[any]any.
func toObject(item any) (map[string]any, bool) {
	switch m := item.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	}
	return nil, false
}

// objectRow registers the object's keys in sorted order. Decoded maps
// are unordered, so sorting keeps attribute order deterministic across
// runs of the same file.
func objectRow(set *Set, obj map[string]any) Row {
	keys := sortedKeys(obj)
	row := make(Row, len(obj))
	for _, k := range keys {
		set.addAttr(k)
		row[k] = FromAny(obj[k])
	}
	return row
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	// insertion sort; objects are small
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
