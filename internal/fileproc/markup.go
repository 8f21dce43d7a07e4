package fileproc

import (
	"regexp"
	"strings"
)

var (
	scriptPattern = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	stylePattern  = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	tagPattern    = regexp.MustCompile(`(?s)<[^>]*>`)
	spacePattern  = regexp.MustCompile(`\s+`)
	cdataPattern  = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
	rootPattern   = regexp.MustCompile(`<\s*([A-Za-z_][\w.-]*)`)
)

// decodeHTML strips script and style blocks, then all remaining tags,
// and collapses whitespace.
func decodeHTML(data []byte) (string, map[string]any) {
	raw := string(data)

	hadScripts := scriptPattern.MatchString(raw)
	hadStyles := stylePattern.MatchString(raw)

	text := scriptPattern.ReplaceAllString(raw, " ")
	text = stylePattern.ReplaceAllString(text, " ")
	text = tagPattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))

	meta := map[string]any{
		"hadScripts":      hadScripts,
		"hadStyles":       hadStyles,
		"originalLength":  len(raw),
		"extractedLength": len(text),
	}
	return text, meta
}

// decodeXML unwraps CDATA sections, strips tags and collapses
// whitespace; the root element name is recorded in metadata.
func decodeXML(data []byte) (string, map[string]any) {
	raw := string(data)

	// Declarations (<?xml), comments and DOCTYPE never match the
	// pattern, so the first hit is the root element.
	rootElement := ""
	if m := rootPattern.FindStringSubmatch(raw); m != nil {
		rootElement = m[1]
	}

	text := cdataPattern.ReplaceAllString(raw, " $1 ")
	text = tagPattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))

	meta := map[string]any{
		"rootElement": rootElement,
	}
	return text, meta
}
