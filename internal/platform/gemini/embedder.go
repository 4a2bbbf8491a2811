package gemini

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/types"
)

const maxEmbedChars = 8000

// Embedder produces text embeddings with the Gemini embedding model.
type Embedder struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

func NewEmbedder(ctx context.Context, cfg Config, log *logger.Logger) (*Embedder, error) {
	log = log.With("service", "Embedder")
	if !cfg.Enabled() {
		log.Warn("embedder disabled, graph nodes will be stored without vectors")
		return &Embedder{log: log}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Embedder{client: client, model: "gemini-embedding-001", log: log}, nil
}

func (e *Embedder) Available() bool { return e.client != nil }

func (e *Embedder) EncodeText(ctx context.Context, text string) ([]float32, error) {
	if e.client == nil {
		return nil, nil
	}
	text = truncateForEmbed(text)
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: "RETRIEVAL_DOCUMENT",
	})
	if err != nil {
		return nil, types.Tag(types.KindVector, fmt.Errorf("embed text: %w", err))
	}
	if len(result.Embeddings) == 0 {
		return nil, types.Tag(types.KindVector, fmt.Errorf("no embeddings returned"))
	}
	return result.Embeddings[0].Values, nil
}

// truncateForEmbed caps the text at the API limit without cutting a
// rune in half.
func truncateForEmbed(text string) string {
	if len(text) <= maxEmbedChars {
		return text
	}
	cut := maxEmbedChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// EncodeFile embeds the file's text when it is readable as text.
// Binary media gets no vector; callers fall back to a caption node.
func (e *Embedder) EncodeFile(ctx context.Context, path string) ([]float32, string, error) {
	if e.client == nil {
		return nil, "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", types.Tag(types.KindIO, fmt.Errorf("read %q: %w", path, err))
	}
	if !utf8.Valid(data) {
		return nil, "", nil
	}
	vec, err := e.EncodeText(ctx, string(data))
	return vec, "", err
}

var _ types.Embedder = (*Embedder)(nil)
