package types

import (
	"path/filepath"
	"strings"
)

// Modality is the coarse content class recorded on every file catalog entry.
type Modality string

const (
	ModalityTabular  Modality = "tabular"
	ModalityDocument Modality = "document"
	ModalityImage    Modality = "image"
	ModalityVideo    Modality = "video"
	ModalityAudio    Modality = "audio"
	ModalityBinary   Modality = "binary"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true,
	".tiff": true, ".tif": true, ".webp": true, ".svg": true, ".heic": true,
}

var videoExts = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".wmv": true,
	".flv": true, ".webm": true, ".m4v": true, ".mpeg": true, ".mpg": true,
}

var audioExts = map[string]bool{
	".mp3": true, ".wav": true, ".flac": true, ".aac": true, ".ogg": true,
	".m4a": true, ".wma": true, ".opus": true,
}

// MediaModality reports the media modality for a path, or "" when the
// extension is not a known media extension.
func MediaModality(path string) Modality {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExts[ext]:
		return ModalityImage
	case videoExts[ext]:
		return ModalityVideo
	case audioExts[ext]:
		return ModalityAudio
	}
	return ""
}

func (m Modality) IsMedia() bool {
	switch m {
	case ModalityImage, ModalityVideo, ModalityAudio:
		return true
	}
	return false
}

// Title returns the modality with an upper-cased first letter, used in
// fallback captions such as "Image file photo.jpg".
func (m Modality) Title() string {
	s := string(m)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
