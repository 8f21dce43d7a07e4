package fileproc

import (
	"encoding/json"
	"fmt"
	"strings"
)

const csvPreviewRows = 10

// decodeCSV treats the first line as headers and emits a preview capped
// at the first rows of the file.
func decodeCSV(data []byte) (string, map[string]any) {
	lines := make([]string, 0, 16)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	var headers []string
	if len(lines) > 0 {
		for _, h := range strings.Split(lines[0], ",") {
			headers = append(headers, strings.TrimSpace(h))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Headers: %s\n", strings.Join(headers, ", "))
	preview := len(lines)
	if preview > csvPreviewRows {
		preview = csvPreviewRows
	}
	for i := 0; i < preview; i++ {
		fmt.Fprintf(&b, "Row %d: %s\n", i+1, lines[i])
	}
	if len(lines) > preview {
		fmt.Fprintf(&b, "... (%d more rows)\n", len(lines)-preview)
	}

	meta := map[string]any{
		"rowCount":    len(lines),
		"columnCount": len(headers),
		"headers":     headers,
	}
	return strings.TrimRight(b.String(), "\n"), meta
}

// decodeJSON pretty-prints valid JSON with 2-space indentation. Invalid
// input falls back to the raw bytes with isValidJSON:false instead of
// failing the file.
func decodeJSON(data []byte) (string, map[string]any) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return string(data), map[string]any{"isValidJSON": false}
	}

	pretty, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return string(data), map[string]any{"isValidJSON": false}
	}
	return string(pretty), map[string]any{"isValidJSON": true}
}
