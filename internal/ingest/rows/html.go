package rows

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/yungbote/datavault-backend/internal/types"
)

// fromHTML reads the first <table> in the document. Header cells come
// from <th> elements when present, otherwise from the first row; data
// rows with a different cell count are skipped.
func fromHTML(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return Set{}, types.Tag(types.KindIO, fmt.Errorf("open %s: %w", path, err))
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return Set{}, types.Tag(types.KindParse, fmt.Errorf("parse html %s: %w", path, err))
	}
	table := findFirst(doc, "table")
	if table == nil {
		return Set{}, nil
	}

	trs := findAll(table, "tr")
	if len(trs) == 0 {
		return Set{}, nil
	}

	headers := cellTexts(trs[0], "th")
	body := trs[1:]
	if len(headers) == 0 {
		headers = cellTexts(trs[0], "td")
		body = trs[1:]
	}
	if len(headers) == 0 {
		return Set{}, nil
	}

	var set Set
	for _, h := range headers {
		set.addAttr(h)
	}
	for _, tr := range body {
		cells := cellTexts(tr, "td")
		if len(cells) != len(headers) {
			continue
		}
		row := make(Row, len(headers))
		for i, attr := range set.Attributes {
			row[attr] = Text(cells[i])
		}
		set.Records = append(set.Records, row)
	}
	return set, nil
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

func cellTexts(tr *html.Node, tag string) []string {
	var out []string
	for _, cell := range findAll(tr, tag) {
		out = append(out, strings.TrimSpace(nodeText(cell)))
	}
	return out
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
