// Package filex classifies local files by extension and collects the facts
// the upload preflight needs.
package filex

import (
	"path/filepath"
	"strings"
)

// Kind is the coarse file category the backend stores alongside a record.
type Kind string

const (
	KindPDF      Kind = "pdf"
	KindAudio    Kind = "audio"
	KindVideo    Kind = "video"
	KindImage    Kind = "image"
	KindDocument Kind = "document"
)

var kindByExt = map[string]Kind{
	"pdf":  KindPDF,
	"mp3":  KindAudio,
	"wav":  KindAudio,
	"ogg":  KindAudio,
	"m4a":  KindAudio,
	"mp4":  KindVideo,
	"avi":  KindVideo,
	"mov":  KindVideo,
	"webm": KindVideo,
	"jpg":  KindImage,
	"jpeg": KindImage,
	"png":  KindImage,
	"gif":  KindImage,
	"webp": KindImage,
}

func ext(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// DetectKind maps a file name to its Kind; unknown extensions are documents.
func DetectKind(name string) Kind {
	if k, ok := kindByExt[ext(name)]; ok {
		return k
	}
	return KindDocument
}

// Analyzable reports whether the multimodal proxy accepts the kind.
func (k Kind) Analyzable() bool {
	return k == KindPDF || k == KindAudio || k == KindVideo
}

// MIMEType returns the content type sent to the AI vendor for a file of the
// given kind. Unknown audio and video extensions fall back to mp3 and mp4.
func MIMEType(kind Kind, name string) string {
	e := ext(name)
	switch kind {
	case KindPDF:
		return "application/pdf"
	case KindAudio:
		switch e {
		case "wav":
			return "audio/wav"
		case "m4a":
			return "audio/mp4"
		default:
			return "audio/mpeg"
		}
	case KindVideo:
		switch e {
		case "avi":
			return "video/x-msvideo"
		case "mov":
			return "video/quicktime"
		default:
			return "video/mp4"
		}
	case KindImage:
		switch e {
		case "png":
			return "image/png"
		case "gif":
			return "image/gif"
		case "webp":
			return "image/webp"
		default:
			return "image/jpeg"
		}
	}
	return "application/octet-stream"
}
