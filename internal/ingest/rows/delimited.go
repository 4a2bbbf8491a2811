package rows

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/datavault-backend/internal/types"
)

func fromDelimited(path string, delim rune) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return Set{}, types.Tag(types.KindIO, fmt.Errorf("open %s: %w", path, err))
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = delim
	// The header sets the field count; a record with more or fewer
	// fields makes the whole file malformed.
	r.FieldsPerRecord = 0
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return Set{}, types.Tag(types.KindParse, fmt.Errorf("read delimited %s: %w", path, err))
	}
	return fromRecords(records), nil
}

// fromRecords builds a Set from raw string records; the first record is
// the header. Short records pad with nulls, long records drop extras.
func fromRecords(records [][]string) Set {
	if len(records) < 1 {
		return Set{}
	}
	var set Set
	for _, h := range records[0] {
		set.addAttr(strings.TrimSpace(h))
	}
	for _, rec := range records[1:] {
		if len(rec) == 0 {
			continue
		}
		row := make(Row, len(set.Attributes))
		for i, attr := range set.Attributes {
			if i < len(rec) {
				row[attr] = Text(strings.TrimSpace(rec[i]))
			} else {
				row[attr] = Null()
			}
		}
		set.Records = append(set.Records, row)
	}
	return set
}

// DetectDelimiter checks the first lines of a text body for delimiter
// regularity: the header must split into more than one field and every
// sampled line must yield the same number of non-empty fields. Comma is
// tried before tab.
func DetectDelimiter(lines []string) (rune, bool) {
	if len(lines) < 2 {
		return 0, false
	}
	sample := lines[1:]
	if len(sample) > 10 {
		sample = sample[:10]
	}
	for _, delim := range []string{",", "\t"} {
		header := strings.Split(lines[0], delim)
		if len(header) < 2 {
			continue
		}
		ok := true
		for _, line := range sample {
			if countFields(line, delim) != len(header) {
				ok = false
				break
			}
		}
		if ok {
			return []rune(delim)[0], true
		}
	}
	return 0, false
}

func countFields(line, delim string) int {
	n := 0
	for _, f := range strings.Split(line, delim) {
		if strings.TrimSpace(f) != "" {
			n++
		}
	}
	return n
}

func fromText(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, types.Tag(types.KindIO, fmt.Errorf("read %s: %w", path, err))
	}
	lines := nonEmptyLines(string(data))
	delim, ok := DetectDelimiter(lines)
	if !ok {
		return Set{}, nil
	}
	records := make([][]string, 0, len(lines))
	for _, line := range lines {
		records = append(records, strings.Split(line, string(delim)))
	}
	return fromRecords(records), nil
}

func nonEmptyLines(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
