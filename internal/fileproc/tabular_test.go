package fileproc

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDecodeCSVTwoRows(t *testing.T) {
	content, meta := decodeCSV([]byte("a,b\n1,2"))

	if meta["rowCount"] != 2 {
		t.Errorf("rowCount = %v, want 2", meta["rowCount"])
	}
	if meta["columnCount"] != 2 {
		t.Errorf("columnCount = %v, want 2", meta["columnCount"])
	}
	if !reflect.DeepEqual(meta["headers"], []string{"a", "b"}) {
		t.Errorf("headers = %v, want [a b]", meta["headers"])
	}
	if !strings.Contains(content, "Row 1: a,b") {
		t.Errorf("content missing 'Row 1: a,b':\n%s", content)
	}
}

func TestDecodeCSVSkipsEmptyLinesAndCapsPreview(t *testing.T) {
	var lines []string
	lines = append(lines, "h1,h2,h3")
	for i := 0; i < 20; i++ {
		lines = append(lines, "x,y,z")
	}
	raw := strings.Join(lines, "\n") + "\n\n\n"

	content, meta := decodeCSV([]byte(raw))
	if meta["rowCount"] != 21 {
		t.Errorf("rowCount = %v, want 21", meta["rowCount"])
	}
	if strings.Contains(content, "Row 11:") {
		t.Error("preview must be capped at 10 rows")
	}
	if !strings.Contains(content, "11 more rows") {
		t.Errorf("content should note remaining rows:\n%s", content)
	}
}

func TestDecodeJSONRoundTrip(t *testing.T) {
	raw := []byte(`{"b":[1,2,{"c":null}],"a":"text"}`)
	content, meta := decodeJSON(raw)

	if meta["isValidJSON"] != true {
		t.Fatalf("isValidJSON = %v, want true", meta["isValidJSON"])
	}

	var original, pretty any
	if err := json.Unmarshal(raw, &original); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(content), &pretty); err != nil {
		t.Fatalf("pretty-printed output must re-parse: %v", err)
	}
	if !reflect.DeepEqual(original, pretty) {
		t.Error("pretty-printed JSON is not structurally equal to input")
	}
	if !strings.Contains(content, "  \"a\"") {
		t.Error("output should use 2-space indentation")
	}
}

func TestDecodeJSONInvalidFallsBack(t *testing.T) {
	raw := []byte("{not json at all")
	content, meta := decodeJSON(raw)

	if meta["isValidJSON"] != false {
		t.Errorf("isValidJSON = %v, want false", meta["isValidJSON"])
	}
	if content != string(raw) {
		t.Errorf("invalid JSON must return original bytes unmodified, got %q", content)
	}
}
