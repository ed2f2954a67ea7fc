// Package filekind classifies message attachments for the composer.
// One classification keyed on the declared MIME type with a filename
// extension fallback, instead of ad hoc checks at every call site.
package filekind

import (
	"path/filepath"
	"strings"
)

// Kind of an attachment as seen by the message composer.
type Kind int

const (
	Binary Kind = iota // not inlinable, described by a note
	Text               // content is inlined into the payload
	Missing            // referenced file absent from storage
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Missing:
		return "missing"
	default:
		return "binary"
	}
}

// Extensions whose content is inlined even when the declared type is
// not text/* (browsers report e.g. application/json for .json).
var textExts = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".json": true,
	".py":   true,
	".js":   true,
	".html": true,
	".css":  true,
	".c":    true,
	".cpp":  true,
	".h":    true,
	".xml":  true,
}

// Classify decides whether an attachment's content can be inlined.
// contentType is the declared MIME type; name is the original filename.
func Classify(contentType, name string) Kind {
	if strings.HasPrefix(strings.ToLower(contentType), "text/") {
		return Text
	}
	if textExts[strings.ToLower(filepath.Ext(name))] {
		return Text
	}
	return Binary
}
