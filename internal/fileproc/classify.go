package fileproc

import (
	"path/filepath"
	"strings"
)

// Format is the closed set of file kinds the extractor can decode.
// Classification happens once, up front; each decoder handles exactly
// one variant.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatSpreadsheet
	FormatWord
	FormatSlides
	FormatHTML
	FormatXML
	FormatCSV
	FormatJSON
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatSpreadsheet:
		return "spreadsheet"
	case FormatWord:
		return "word"
	case FormatSlides:
		return "slides"
	case FormatHTML:
		return "html"
	case FormatXML:
		return "xml"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatText:
		return "text"
	default:
		return "unknown"
	}
}

// mimeFormats maps declared MIME types to formats. Checked before the
// extension fallback.
var mimeFormats = map[string]Format{
	"application/pdf": FormatPDF,

	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": FormatSpreadsheet,
	"application/vnd.ms-excel": FormatSpreadsheet,

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatWord,
	"application/msword": FormatWord,

	"application/vnd.openxmlformats-officedocument.presentationml.presentation": FormatSlides,
	"application/vnd.ms-powerpoint": FormatSlides,

	"text/html": FormatHTML,

	"application/xml": FormatXML,
	"text/xml":        FormatXML,

	"text/csv":        FormatCSV,
	"application/csv": FormatCSV,

	"application/json": FormatJSON,
}

// extFormats is the extension fallback for files whose declared MIME
// type is missing or generic.
var extFormats = map[string]Format{
	".pdf":  FormatPDF,
	".xlsx": FormatSpreadsheet,
	".xls":  FormatSpreadsheet,
	".docx": FormatWord,
	".doc":  FormatWord,
	".pptx": FormatSlides,
	".ppt":  FormatSlides,
	".html": FormatHTML,
	".htm":  FormatHTML,
	".xml":  FormatXML,
	".csv":  FormatCSV,
	".json": FormatJSON,
	".txt":  FormatText,
	".md":   FormatText,
	".log":  FormatText,
}

// Classify resolves the format for a file: declared MIME type first,
// extension fallback second, generic text/ prefix last.
func Classify(name, mimeType string) Format {
	mime := strings.ToLower(strings.TrimSpace(mimeType))
	// Strip parameters like "; charset=utf-8".
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	if f, ok := mimeFormats[mime]; ok {
		return f
	}
	if f, ok := extFormats[strings.ToLower(filepath.Ext(name))]; ok {
		return f
	}
	if strings.HasPrefix(mime, "text/") {
		return FormatText
	}
	return FormatUnknown
}

// IsFileSupported reports whether a name/MIME pair dispatches to any
// decoder. It agrees with Classify by construction.
func IsFileSupported(name, mimeType string) bool {
	return Classify(name, mimeType) != FormatUnknown
}
