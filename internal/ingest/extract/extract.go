package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/types"
)

// textExtensions are the formats read verbatim as plain text.
var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".log": true, ".csv": true, ".tsv": true,
	".json": true, ".xml": true, ".yaml": true, ".yml": true,
	".html": true, ".htm": true, ".ini": true,
}

// Plain reads text-like files directly. Formats that need a dedicated
// parser (pdf, docx, media) yield "" so callers use their fallbacks.
type Plain struct {
	log *logger.Logger
}

func NewPlain(log *logger.Logger) *Plain {
	return &Plain{log: log.With("service", "TextExtractor")}
}

func (p *Plain) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", types.Tag(types.KindCancelled, err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !textExtensions[ext] {
		p.log.Debug("no text extractor for format", "ext", ext, "path", path)
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", types.Tag(types.KindIO, fmt.Errorf("read %q: %w", path, err))
	}
	if !utf8.Valid(data) {
		return "", nil
	}
	return string(data), nil
}

var _ types.TextExtractor = (*Plain)(nil)
