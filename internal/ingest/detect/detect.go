package detect

import (
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/datavault-backend/internal/types"
)

// FileType is the structural format tag produced by detection.
type FileType string

const (
	TypeTabular FileType = "tabular"
	TypeJSON    FileType = "json"
	TypeXML     FileType = "xml"
	TypeYAML    FileType = "yaml"
	TypeHTML    FileType = "html"
	TypeText    FileType = "text"
	TypeDoc     FileType = "document"
	TypeMedia   FileType = "media"
	TypeBinary  FileType = "binary"
)

// Result pairs the format tag with the catalog modality.
type Result struct {
	Type     FileType
	Modality types.Modality
}

var extTypes = map[string]FileType{
	".csv": TypeTabular, ".tsv": TypeTabular, ".xlsx": TypeTabular, ".xls": TypeTabular,
	".json": TypeJSON,
	".xml":  TypeXML,
	".yaml": TypeYAML, ".yml": TypeYAML,
	".html": TypeHTML, ".htm": TypeHTML,
	".txt": TypeText, ".md": TypeText, ".log": TypeText,
	".ini": TypeText, ".cfg": TypeText, ".conf": TypeText,
	".pdf": TypeDoc, ".docx": TypeDoc, ".doc": TypeDoc,
}

const sniffLimit = 4096

// Detect maps a path to its format and modality. It never errors:
// unreadable or unrecognizable content degrades to text then binary.
func Detect(path string) Result {
	if m := types.MediaModality(path); m != "" {
		return Result{Type: TypeMedia, Modality: m}
	}
	ext := strings.ToLower(filepath.Ext(path))
	if mt := mime.TypeByExtension(ext); mt != "" {
		switch {
		case strings.HasPrefix(mt, "image/"):
			return Result{Type: TypeMedia, Modality: types.ModalityImage}
		case strings.HasPrefix(mt, "video/"):
			return Result{Type: TypeMedia, Modality: types.ModalityVideo}
		case strings.HasPrefix(mt, "audio/"):
			return Result{Type: TypeMedia, Modality: types.ModalityAudio}
		}
	}
	if t, ok := extTypes[ext]; ok {
		return Result{Type: t, Modality: modalityFor(t)}
	}
	if sniffText(path) {
		return Result{Type: TypeText, Modality: types.ModalityDocument}
	}
	return Result{Type: TypeBinary, Modality: types.ModalityBinary}
}

func modalityFor(t FileType) types.Modality {
	if t == TypeTabular {
		return types.ModalityTabular
	}
	return types.ModalityDocument
}

// sniffText reads a bounded prefix and checks it decodes as UTF-8.
func sniffText(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	buf := make([]byte, sniffLimit)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false
	}
	buf = buf[:n]
	// A truncated read can split a multibyte rune; trim the tail
	// before validating.
	for len(buf) > 0 && n == sniffLimit {
		if utf8.Valid(buf) {
			break
		}
		buf = buf[:len(buf)-1]
		if len(buf) < sniffLimit-utf8.UTFMax {
			break
		}
	}
	return len(buf) > 0 && utf8.Valid(buf)
}
