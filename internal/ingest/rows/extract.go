package rows

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/datavault-backend/internal/types"
)

// Extract reads a file and converts it into rows according to its
// extension. Formats without a tabular reading return a parse-tagged
// error; an empty Set without error means the file parsed but carried
// no records.
func Extract(path string) (Set, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return fromDelimited(path, ',')
	case ".tsv":
		return fromDelimited(path, '\t')
	case ".txt", ".log":
		return fromText(path)
	case ".json":
		return fromJSON(path)
	case ".yaml", ".yml":
		return fromYAML(path)
	case ".xml":
		return fromXML(path)
	case ".html", ".htm":
		return fromHTML(path)
	case ".xlsx":
		return fromXLSX(path)
	default:
		return Set{}, types.Tag(types.KindParse, fmt.Errorf("no row extraction for %q files", ext))
	}
}

// Signature computes the SHA-256 of the file content, recorded on the
// catalog entry for idempotence diagnostics.
func Signature(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", types.Tag(types.KindIO, fmt.Errorf("open %s: %w", path, err))
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", types.Tag(types.KindIO, fmt.Errorf("hash %s: %w", path, err))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
