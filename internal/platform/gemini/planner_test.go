package gemini

import (
	"strings"
	"testing"
)

func TestStripFences(t *testing.T) {
	raw := "```json\n{\"persona\": \"Work\"}\n```"
	if got := stripFences(raw); got != `{"persona": "Work"}` {
		t.Fatalf("stripFences: got %q", got)
	}
	if got := stripFences(`{"a":1}`); got != `{"a":1}` {
		t.Fatalf("plain json mangled: %q", got)
	}
}

func TestSanitizeSegment(t *testing.T) {
	cases := map[string]string{
		`Quarterly: Report?`:  "Quarterly- Report-",
		"a/b\\c":              "a-b-c",
		"  spaced   words  ":  "spaced words",
		`<angle>|pipe`:        "-angle--pipe",
	}
	for in, want := range cases {
		if got := sanitizeSegment(in); got != want {
			t.Fatalf("sanitizeSegment(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestSanitizeSegmentCapsWordCount(t *testing.T) {
	got := sanitizeSegment("one two three four five six seven eight")
	if want := "one two three four five six"; got != want {
		t.Fatalf("word cap: want=%q got=%q", want, got)
	}
}

func TestParsePlan(t *testing.T) {
	raw := "```json\n" + `{
  "persona": "Finance",
  "domain": "Quarterly Reports",
  "category": "Revenue",
  "topic": "Q3 Summary",
  "filename": "q3-summary.pdf",
  "path": "ignored/by/parser"
}` + "\n```"

	plan, err := parsePlan(raw, "original.pdf")
	if err != nil {
		t.Fatalf("parsePlan: %v", err)
	}
	if plan.Persona != "Finance" {
		t.Fatalf("persona: got %q", plan.Persona)
	}
	if plan.Path != "Finance/Quarterly Reports/Revenue/Q3 Summary/q3-summary.pdf" {
		t.Fatalf("path rebuilt wrong: %q", plan.Path)
	}
}

func TestParsePlanEnforcesExtension(t *testing.T) {
	raw := `{"persona":"Work","domain":"d","category":"c","topic":"t","filename":"notes.txt"}`
	plan, err := parsePlan(raw, "notes.docx")
	if err != nil {
		t.Fatalf("parsePlan: %v", err)
	}
	if plan.Filename != "notes.docx" {
		t.Fatalf("extension not restored: %q", plan.Filename)
	}
}

func TestParsePlanRejectsUnknownPersona(t *testing.T) {
	raw := `{"persona":"Overlord","domain":"d","category":"c","topic":"t","filename":"x.txt"}`
	if _, err := parsePlan(raw, "x.txt"); err == nil {
		t.Fatalf("want error for unknown persona")
	}
	if _, err := parsePlan("not json at all", "x.txt"); err == nil {
		t.Fatalf("want error for invalid json")
	}
}

func TestBuildPromptMentionsExtensionAndPersonas(t *testing.T) {
	prompt := buildPrompt("tax filing for 2025", "- repo/\n  - Work/", "taxes.pdf")
	if !strings.Contains(prompt, `".pdf"`) {
		t.Fatalf("prompt missing extension rule:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Finance") || !strings.Contains(prompt, "Civic") {
		t.Fatalf("prompt missing personas")
	}
	if !strings.Contains(prompt, "tax filing for 2025") {
		t.Fatalf("prompt missing description")
	}
}
