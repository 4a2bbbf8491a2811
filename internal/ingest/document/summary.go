package document

import (
	"regexp"
	"strings"
)

const (
	maxSummarySentences = 5
	maxSummaryChars     = 800
	maxPreviewChars     = 500
)

var sentenceBoundary = regexp.MustCompile(`([.!?])\s+`)

// Summarize keeps the first few sentences of text. Empty text falls
// back to the file name so every catalog entry has a description.
func Summarize(text, fallback string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}
	split := sentenceBoundary.ReplaceAllString(text, "$1\x00")
	sentences := strings.Split(split, "\x00")
	if len(sentences) > maxSummarySentences {
		sentences = sentences[:maxSummarySentences]
	}
	summary := strings.Join(sentences, " ")
	if runes := []rune(summary); len(runes) > maxSummaryChars {
		summary = string(runes[:maxSummaryChars])
	}
	return summary
}

func preview(summary string) string {
	if runes := []rune(summary); len(runes) > maxPreviewChars {
		return string(runes[:maxPreviewChars])
	}
	return summary
}

// collectionKeywords maps catalog collections to trigger words.
var collectionKeywords = []struct {
	name  string
	words []string
}{
	{"products", []string{"product", "price", "cost", "inventory", "stock"}},
	{"users", []string{"user", "customer", "client", "person", "employee"}},
	{"orders", []string{"order", "transaction", "purchase", "sale"}},
	{"documents", []string{"document", "report", "article", "paper"}},
	{"media", []string{"image", "photo", "picture", "jpg", "png"}},
	{"media", []string{"video", "mp4", "avi", "mov"}},
	{"media", []string{"audio", "sound", "mp3", "wav"}},
}

// InferCollection picks the chunk collection from keyword hits,
// defaulting to "general".
func InferCollection(text string) string {
	if text == "" {
		return "general"
	}
	lower := strings.ToLower(text)
	for _, group := range collectionKeywords {
		for _, w := range group.words {
			if strings.Contains(lower, w) {
				return group.name
			}
		}
	}
	return "general"
}
