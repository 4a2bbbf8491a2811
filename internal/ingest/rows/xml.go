package rows

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yungbote/datavault-backend/internal/types"
)

type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

// fromXML treats the root's children as row elements: attributes and
// leaf children become columns, element text lands under "text".
// Children that repeat below row level are lifted into child sets keyed
// by the parent's id value (or the 1-based row index when no id-like
// attribute exists).
func fromXML(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, types.Tag(types.KindIO, fmt.Errorf("read %s: %w", path, err))
	}
	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return Set{}, types.Tag(types.KindParse, fmt.Errorf("decode xml %s: %w", path, err))
	}
	if len(root.Nodes) == 0 {
		return Set{}, nil
	}

	var set Set
	children := map[string]*ChildSet{}
	for i, el := range root.Nodes {
		row := make(Row)
		for _, a := range el.Attrs {
			set.addAttr(a.Name.Local)
			row[a.Name.Local] = Text(a.Value)
		}
		for _, sub := range el.Nodes {
			if len(sub.Nodes) == 0 {
				set.addAttr(sub.XMLName.Local)
				row[sub.XMLName.Local] = Text(strings.TrimSpace(sub.Content))
				continue
			}
			collectChild(children, sub, parentID(row, i))
		}
		if text := strings.TrimSpace(el.Content); text != "" {
			set.addAttr("text")
			row["text"] = Text(text)
		}
		set.Records = append(set.Records, row)
	}
	for _, name := range sortedChildNames(children) {
		set.Children = append(set.Children, *children[name])
	}
	return set, nil
}

func parentID(row Row, index int) Value {
	for _, key := range []string{"id", "ID", "Id"} {
		if v, ok := row[key]; ok && !v.IsNull() && v.Text() != "" {
			return v
		}
	}
	return Text(strconv.Itoa(index + 1))
}

// collectChild flattens one nested repeating group. Each grandchild of
// the row element becomes a child record carrying parent_id.
func collectChild(children map[string]*ChildSet, sub xmlNode, parent Value) {
	cs, ok := children[sub.XMLName.Local]
	if !ok {
		cs = &ChildSet{Name: sub.XMLName.Local}
		cs.Set.addAttr("parent_id")
		children[sub.XMLName.Local] = cs
	}
	for _, item := range sub.Nodes {
		row := Row{"parent_id": parent}
		for _, a := range item.Attrs {
			cs.Set.addAttr(a.Name.Local)
			row[a.Name.Local] = Text(a.Value)
		}
		for _, leaf := range item.Nodes {
			cs.Set.addAttr(leaf.XMLName.Local)
			row[leaf.XMLName.Local] = Text(strings.TrimSpace(leaf.Content))
		}
		if text := strings.TrimSpace(item.Content); text != "" && len(item.Nodes) == 0 {
			name := "text"
			if len(item.Attrs) == 0 {
				name = item.XMLName.Local
			}
			cs.Set.addAttr(name)
			row[name] = Text(text)
		}
		cs.Set.Records = append(cs.Set.Records, row)
	}
}

func sortedChildNames(children map[string]*ChildSet) []string {
	names := make([]string, 0, len(children))
	for n := range children {
		names = append(names, n)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	return names
}
