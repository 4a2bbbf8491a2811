package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/datavault-backend/internal/types"
)

func TestDetectByExtension(t *testing.T) {
	cases := map[string]Result{
		"data.csv":    {TypeTabular, types.ModalityTabular},
		"book.xlsx":   {TypeTabular, types.ModalityTabular},
		"conf.json":   {TypeJSON, types.ModalityDocument},
		"feed.xml":    {TypeXML, types.ModalityDocument},
		"deploy.yaml": {TypeYAML, types.ModalityDocument},
		"page.html":   {TypeHTML, types.ModalityDocument},
		"notes.md":    {TypeText, types.ModalityDocument},
		"paper.pdf":   {TypeDoc, types.ModalityDocument},
		"cat.jpg":     {TypeMedia, types.ModalityImage},
		"clip.mp4":    {TypeMedia, types.ModalityVideo},
		"talk.mp3":    {TypeMedia, types.ModalityAudio},
	}
	for name, want := range cases {
		got := Detect(name)
		if got != want {
			t.Fatalf("Detect(%q): want=%+v got=%+v", name, want, got)
		}
	}
}

func TestDetectSniffsUnknownExtensions(t *testing.T) {
	dir := t.TempDir()

	textPath := filepath.Join(dir, "readme.dat")
	if err := os.WriteFile(textPath, []byte("plain utf-8 content"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := Detect(textPath); got.Type != TypeText || got.Modality != types.ModalityDocument {
		t.Fatalf("utf-8 content: got %+v", got)
	}

	binPath := filepath.Join(dir, "blob.bin")
	if err := os.WriteFile(binPath, []byte{0x00, 0xff, 0xfe, 0x89}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := Detect(binPath); got.Type != TypeBinary || got.Modality != types.ModalityBinary {
		t.Fatalf("binary content: got %+v", got)
	}

	if got := Detect(filepath.Join(dir, "missing.xyz")); got.Type != TypeBinary {
		t.Fatalf("missing file should degrade to binary, got %+v", got)
	}
}
