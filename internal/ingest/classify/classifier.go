package classify

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/datavault-backend/internal/ingest/rows"
	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/types"
)

const (
	ClassSQL   = "SQL"
	ClassNoSQL = "NoSQL"
)

// Result carries the routing verdict plus the score breakdown for
// auditability.
type Result struct {
	Class      string
	FileType   string
	SQLScore   float64
	NoSQLScore float64
	Confidence float64
	Signals    []string
}

// Classifier scores a file's structure to route it to the relational
// or the document path.
type Classifier struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Classifier {
	return &Classifier{log: log.With("service", "StructureClassifier")}
}

// scorer accumulates weighted structural signals.
type scorer struct {
	sql     float64
	nosql   float64
	signals []string
}

func (s *scorer) addSQL(points float64, reason string) {
	s.sql += points
	s.signals = append(s.signals, fmt.Sprintf("%s: +%g SQL", reason, points))
}

func (s *scorer) addNoSQL(points float64, reason string) {
	s.nosql += points
	s.signals = append(s.signals, fmt.Sprintf("%s: +%g NoSQL", reason, points))
}

func fileType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".csv":
		return "csv"
	case ".tsv":
		return "tsv"
	case ".xlsx":
		return "excel"
	case ".xml":
		return "xml"
	case ".html", ".htm":
		return "html"
	case ".yaml", ".yml":
		return "yaml"
	case ".txt":
		return "text"
	case ".log":
		return "log"
	case ".md":
		return "md"
	case ".pdf":
		return "pdf"
	case ".docx":
		return "docx"
	case ".ini", ".cfg", ".conf":
		return "ini"
	default:
		return "unknown"
	}
}

// Classify reads and scores one file. Ties go to SQL.
func (c *Classifier) Classify(path string) (Result, error) {
	ft := fileType(path)
	var s scorer

	var err error
	switch ft {
	case "json":
		err = c.analyzeJSONFile(&s, path)
	case "csv", "tsv", "excel":
		err = c.analyzeTabular(&s, path)
	case "xml":
		err = c.analyzeXMLFile(&s, path)
	case "html":
		err = c.analyzeHTML(&s, path)
	case "yaml":
		err = c.analyzeYAML(&s, path)
	case "text", "log", "md":
		err = c.analyzeText(&s, path)
	case "pdf", "docx":
		err = c.analyzeDocument(&s, path)
	case "ini":
		err = c.analyzeINI(&s, path)
	default:
		err = c.analyzeUnknown(&s, path)
	}
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Class:      ClassNoSQL,
		FileType:   ft,
		SQLScore:   s.sql,
		NoSQLScore: s.nosql,
		Signals:    s.signals,
	}
	if s.sql >= s.nosql {
		res.Class = ClassSQL
	}
	peak := s.sql
	if s.nosql > peak {
		peak = s.nosql
	}
	if peak < 1 {
		peak = 1
	}
	diff := s.sql - s.nosql
	if diff < 0 {
		diff = -diff
	}
	res.Confidence = diff / peak

	c.log.Info("file classified",
		"file", filepath.Base(path), "type", ft, "class", res.Class,
		"sql_score", res.SQLScore, "nosql_score", res.NoSQLScore, "confidence", res.Confidence)
	return res, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", types.Tag(types.KindIO, fmt.Errorf("read %s: %w", path, err))
	}
	if !utf8.Valid(data) {
		return "", nil
	}
	return string(data), nil
}

func (c *Classifier) analyzeJSONFile(s *scorer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Tag(types.KindIO, fmt.Errorf("read %s: %w", path, err))
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return types.Tag(types.KindParse, fmt.Errorf("decode json %s: %w", path, err))
	}
	analyzeJSON(s, payload)
	return nil
}

func (c *Classifier) analyzeYAML(s *scorer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Tag(types.KindIO, fmt.Errorf("read %s: %w", path, err))
	}
	var payload any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return types.Tag(types.KindParse, fmt.Errorf("decode yaml %s: %w", path, err))
	}
	if flat(payload, 0) {
		s.addSQL(4, "flat structure")
	} else if nestedDepth(payload, 0) > 0 {
		s.addNoSQL(4, "nested structure")
	}
	if schemaConsistent(payload) {
		s.addSQL(2, "consistent schema across entries")
	}
	return nil
}

func (c *Classifier) analyzeTabular(s *scorer, path string) error {
	set, err := rows.Extract(path)
	if err != nil {
		return err
	}
	s.addSQL(5, "tabular format")
	if len(set.Attributes) > 0 {
		s.addSQL(2, "well-defined columns")
	}
	for _, a := range set.Attributes {
		if strings.Contains(strings.ToLower(a), "id") {
			s.addSQL(1, "ID-like column present")
			break
		}
	}
	return nil
}

func (c *Classifier) analyzeXMLFile(s *scorer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Tag(types.KindIO, fmt.Errorf("read %s: %w", path, err))
	}
	var root xmlElement
	if err := xml.Unmarshal(data, &root); err != nil {
		return types.Tag(types.KindParse, fmt.Errorf("decode xml %s: %w", path, err))
	}
	analyzeXML(s, root)
	return nil
}

func (c *Classifier) analyzeHTML(s *scorer, path string) error {
	body, err := readText(path)
	if err != nil {
		return err
	}
	tables := strings.Count(strings.ToLower(body), "<table")
	if tables > 0 {
		s.addSQL(3, "contains html tables")
	}
	if len(body) > 5000 && tables == 0 {
		s.addNoSQL(1, "content-heavy html without tables")
	}
	if len(stripTags(body)) > 3000 {
		s.addNoSQL(2, "large text content")
	}
	return nil
}

func (c *Classifier) analyzeText(s *scorer, path string) error {
	body, err := readText(path)
	if err != nil {
		return err
	}
	s.addNoSQL(3, "text-based format")
	if len(body) > 5000 {
		s.addNoSQL(2, "large free text")
	}
	if _, ok := rows.DetectDelimiter(splitLines(body)); ok {
		s.addSQL(3, "delimiter-regular lines")
	}
	return nil
}

func (c *Classifier) analyzeDocument(s *scorer, path string) error {
	s.addNoSQL(3, "document format")
	if info, err := os.Stat(path); err == nil && info.Size() > 3000 {
		s.addNoSQL(2, "large document")
	}
	return nil
}

// analyzeINI scores flat key=value configuration like a flat object.
func (c *Classifier) analyzeINI(s *scorer, path string) error {
	body, err := readText(path)
	if err != nil {
		return err
	}
	payload := map[string]any{}
	for _, line := range splitLines(body) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if k, v, ok := strings.Cut(line, "="); ok {
			payload[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	analyzeJSON(s, payload)
	return nil
}

// analyzeUnknown probes undeclared files: binary content scores NoSQL
// outright, text re-attempts delimiter, JSON and XML readings before
// defaulting to free text.
func (c *Classifier) analyzeUnknown(s *scorer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Tag(types.KindIO, fmt.Errorf("read %s: %w", path, err))
	}
	if !utf8.Valid(data) {
		s.addNoSQL(2, "binary content")
		return nil
	}
	body := string(data)
	s.addNoSQL(2, "unknown text format")

	if _, ok := rows.DetectDelimiter(splitLines(body)); ok {
		s.addSQL(3, "delimiter-regular lines")
		return nil
	}

	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var payload any
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
			s.nosql -= 2
			s.signals = append(s.signals, "valid json in unknown file, rescoring as json")
			analyzeJSON(s, payload)
			return nil
		}
	}
	if strings.HasPrefix(trimmed, "<") {
		var root xmlElement
		if err := xml.Unmarshal([]byte(trimmed), &root); err == nil {
			s.nosql -= 2
			s.signals = append(s.signals, "valid xml in unknown file, rescoring as xml")
			analyzeXML(s, root)
			return nil
		}
	}
	if len(body) > 5000 {
		s.addNoSQL(2, "large free text")
	}
	return nil
}

func splitLines(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

var tagStripper = strings.NewReplacer("\n", " ", "\t", " ")

func stripTags(body string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range body {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(tagStripper.Replace(sb.String()))
}
