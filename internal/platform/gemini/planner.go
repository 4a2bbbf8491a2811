package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/platform/objectstore"
	"github.com/yungbote/datavault-backend/internal/types"
)

// Personas the router may assign. The model must pick one of these.
var personas = []string{
	"Work", "Personal", "Learning", "Family", "Health", "Finance", "Creative",
	"Community", "Research", "Hobby", "Travel", "Social", "Technical",
	"Administrative", "Entrepreneurial", "Academic", "Wellness",
	"Productivity", "Civic",
}

// Planner asks Gemini for a persona/domain/category/topic storage path
// for a file, giving it the current repository tree as context.
type Planner struct {
	client *genai.Client
	model  string
	store  *objectstore.Store
	log    *logger.Logger
}

func NewPlanner(ctx context.Context, cfg Config, store *objectstore.Store, log *logger.Logger) (*Planner, error) {
	log = log.With("service", "PathPlanner")
	if !cfg.Enabled() || !cfg.PlannerEnabled {
		log.Warn("path planner disabled", "has_key", cfg.Enabled(), "enabled", cfg.PlannerEnabled)
		return &Planner{log: log}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Planner{client: client, model: cfg.Model, store: store, log: log}, nil
}

func (p *Planner) Available() bool { return p.client != nil }

func (p *Planner) Plan(ctx context.Context, description, filename string) (*types.PathPlan, error) {
	if p.client == nil {
		return nil, nil
	}
	tree := ""
	if p.store != nil {
		var err error
		if tree, err = p.store.Tree(); err != nil {
			p.log.Warn("directory tree unavailable for planner", "error", err)
		}
	}
	prompt := buildPrompt(description, tree, filename)

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, types.Tag(types.KindStore, fmt.Errorf("plan path for %q: %w", filename, err))
	}
	plan, err := parsePlan(resp.Text(), filename)
	if err != nil {
		return nil, types.Tag(types.KindStore, err)
	}
	p.log.Info("path planned", "file", filename, "path", plan.Path, "persona", plan.Persona)
	return plan, nil
}

// parsePlan decodes the model's routing JSON, tolerating markdown
// fences, and rebuilds the path from sanitized segments.
func parsePlan(raw, filename string) (*types.PathPlan, error) {
	raw = stripFences(raw)
	var plan types.PathPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, fmt.Errorf("routing response is not valid JSON: %w", err)
	}

	plan.Persona = sanitizeSegment(plan.Persona)
	plan.Domain = sanitizeSegment(plan.Domain)
	plan.Category = sanitizeSegment(plan.Category)
	plan.Topic = sanitizeSegment(plan.Topic)
	plan.Filename = sanitizeSegment(plan.Filename)

	if plan.Persona == "" || plan.Filename == "" {
		return nil, fmt.Errorf("routing response missing persona or filename: %q", raw)
	}
	if !knownPersona(plan.Persona) {
		return nil, fmt.Errorf("routing response used unknown persona %q", plan.Persona)
	}
	// The planned name must keep the original extension or the file
	// becomes unopenable after the move.
	if ext := filepath.Ext(filename); ext != "" && !strings.EqualFold(filepath.Ext(plan.Filename), ext) {
		plan.Filename = strings.TrimSuffix(plan.Filename, filepath.Ext(plan.Filename)) + ext
	}
	plan.Path = path.Join(plan.Persona, plan.Domain, plan.Category, plan.Topic, plan.Filename)
	return &plan, nil
}

func knownPersona(p string) bool {
	for _, cand := range personas {
		if strings.EqualFold(cand, p) {
			return true
		}
	}
	return false
}

func buildPrompt(description, tree, filename string) string {
	ext := filepath.Ext(filename)
	return fmt.Sprintf(`You are PathGuard 5000, a deterministic and extremely strict file-path router.
Return only one JSON object. No comments. No markdown.

STRICT RULES
1. Output MUST be exactly one JSON object.
2. Each field must be 6 words or fewer.
3. No repetition.
4. No nested folders unless one already exists.
5. All values must be plain strings.
6. No filler words.
7. The filename MUST end with the ORIGINAL file extension: %q
8. The filename MUST have a short but meaningful descriptive base name.

ALLOWED PERSONAS
%s

ADDITIONAL CONTEXT
Below is the current folder structure of the repository.
If it is possible, clean, and logically correct, use an existing folder
instead of creating new ones. If not sensible, create a new clean path.

CURRENT DIRECTORY STRUCTURE
%s

MANDATORY JSON SCHEMA
{
  "persona": "<Persona>",
  "domain": "<2-3 word domain>",
  "category": "<2-4 word category>",
  "topic": "<3-6 word topic>",
  "filename": "<short descriptive name>%s",
  "path": "persona/domain/category/topic/filename"
}

INPUT
Description: """%s"""

RESPOND WITH ONLY JSON
`, ext, strings.Join(personas, ", "), tree, ext, strings.TrimSpace(description))
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, "```json", "")
	raw = strings.ReplaceAll(raw, "```", "")
	return strings.TrimSpace(raw)
}

var segmentCleaner = regexp.MustCompile(`[\\/:*?"<>|]`)

const maxSegmentWords = 6

// sanitizeSegment makes one path component safe on every filesystem
// and holds the prompt's word limit even when the model ignores it.
func sanitizeSegment(s string) string {
	s = segmentCleaner.ReplaceAllString(s, "-")
	words := strings.Fields(s)
	if len(words) > maxSegmentWords {
		words = words[:maxSegmentWords]
	}
	return strings.Join(words, " ")
}

var _ types.PathPlanner = (*Planner)(nil)
