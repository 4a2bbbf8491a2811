package classify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/datavault-backend/internal/platform/logger"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return New(log)
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestClassifyUniformJSONArrayIsSQL(t *testing.T) {
	c := newTestClassifier(t)
	path := writeFile(t, "products.json",
		`[{"id":1,"name":"a","price":2.5},{"id":2,"name":"b","price":3.5}]`)
	res, err := c.Classify(path)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Class != ClassSQL {
		t.Fatalf("class: want=%q got=%q (sql=%v nosql=%v)", ClassSQL, res.Class, res.SQLScore, res.NoSQLScore)
	}
}

func TestClassifyNestedJSONIsNoSQL(t *testing.T) {
	c := newTestClassifier(t)
	path := writeFile(t, "config.json",
		`{"server":{"host":"localhost","ports":[80,443]},"features":{"auth":{"providers":["a","b"]}}}`)
	res, err := c.Classify(path)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Class != ClassNoSQL {
		t.Fatalf("class: want=%q got=%q (sql=%v nosql=%v)", ClassNoSQL, res.Class, res.SQLScore, res.NoSQLScore)
	}
}

func TestClassifyCSVIsSQL(t *testing.T) {
	c := newTestClassifier(t)
	path := writeFile(t, "data.csv", "id,name\n1,a\n2,b\n")
	res, err := c.Classify(path)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Class != ClassSQL {
		t.Fatalf("class: want=%q got=%q", ClassSQL, res.Class)
	}
	if res.SQLScore < 7 {
		t.Fatalf("tabular with columns and id should score at least 7, got %v", res.SQLScore)
	}
}

func TestClassifyProseTextIsNoSQL(t *testing.T) {
	c := newTestClassifier(t)
	path := writeFile(t, "notes.txt", "Meeting notes.\nWe shipped the thing.\nNext steps pending.\n")
	res, err := c.Classify(path)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Class != ClassNoSQL {
		t.Fatalf("class: want=%q got=%q", ClassNoSQL, res.Class)
	}
}

func TestClassifyDelimitedTextIsSQL(t *testing.T) {
	c := newTestClassifier(t)
	path := writeFile(t, "export.txt", "sku\tqty\nA\t1\nB\t2\nC\t3\n")
	res, err := c.Classify(path)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Class != ClassSQL {
		t.Fatalf("tab-regular text should route SQL, got %q (sql=%v nosql=%v)", res.Class, res.SQLScore, res.NoSQLScore)
	}
}

func TestClassifyUnknownExtensionProbesJSON(t *testing.T) {
	c := newTestClassifier(t)
	path := writeFile(t, "payload.dat",
		`[{"id":1,"name":"a"},{"id":2,"name":"b"}]`)
	res, err := c.Classify(path)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Class != ClassSQL {
		t.Fatalf("valid json in unknown file should rescore as json, got %q", res.Class)
	}
}

func TestClassifyRepeatingXMLIsSQL(t *testing.T) {
	c := newTestClassifier(t)
	path := writeFile(t, "rows.xml",
		`<rows><row id="1" v="a"/><row id="2" v="b"/><row id="3" v="c"/></rows>`)
	res, err := c.Classify(path)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Class != ClassSQL {
		t.Fatalf("repeating uniform xml should route SQL, got %q", res.Class)
	}
}

func TestClassifyHTMLTableIsSQL(t *testing.T) {
	c := newTestClassifier(t)
	path := writeFile(t, "t.html", "<html><body><table><tr><th>a</th></tr><tr><td>1</td></tr></table></body></html>")
	res, err := c.Classify(path)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Class != ClassSQL {
		t.Fatalf("html with table should route SQL, got %q", res.Class)
	}
}

func TestConfidenceBounds(t *testing.T) {
	c := newTestClassifier(t)
	path := writeFile(t, "big.txt", strings.Repeat("lorem ipsum dolor sit amet. ", 300))
	res, err := c.Classify(path)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", res.Confidence)
	}
	if res.Confidence != 1.0 {
		t.Fatalf("one-sided scoring should give confidence 1.0, got %v", res.Confidence)
	}
}
