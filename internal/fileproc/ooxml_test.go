package fileproc

import (
	"archive/zip"
	"bytes"
	"reflect"
	"strings"
	"testing"
)

// buildArchive assembles an in-memory zip from name/content pairs,
// preserving entry order.
func buildArchive(t *testing.T, parts [][2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range parts {
		w, err := zw.Create(part[0])
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(part[1])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeSpreadsheet(t *testing.T) {
	data := buildArchive(t, [][2]string{
		{"xl/workbook.xml", `<workbook><sheets><sheet name="Data" sheetId="1"/></sheets></workbook>`},
		{"xl/sharedStrings.xml", `<sst><si><t>alpha</t></si><si><t>beta</t></si></sst>`},
		{"xl/worksheets/sheet1.xml", `<worksheet><sheetData>
			<row r="1"><c t="s"><v>0</v></c><c t="s"><v>1</v></c></row>
			<row r="2"><c><v>1</v></c><c><v>2</v></c></row>
			<row r="3"></row>
		</sheetData></worksheet>`},
	})

	content, meta, err := decodeSpreadsheet(data)
	if err != nil {
		t.Fatalf("decodeSpreadsheet: %v", err)
	}

	if !strings.Contains(content, "=== Sheet: Data (2 rows x 2 columns) ===") {
		t.Errorf("missing sheet header:\n%s", content)
	}
	if !strings.Contains(content, "Row 1: alpha | beta") {
		t.Errorf("shared strings not resolved:\n%s", content)
	}
	if !strings.Contains(content, "Row 2: 1 | 2") {
		t.Errorf("numeric row missing:\n%s", content)
	}
	if meta["sheetCount"] != 1 {
		t.Errorf("sheetCount = %v, want 1", meta["sheetCount"])
	}
	if !reflect.DeepEqual(meta["sheetNames"], []string{"Data"}) {
		t.Errorf("sheetNames = %v, want [Data]", meta["sheetNames"])
	}
}

func TestDecodeSpreadsheetRejectsGarbage(t *testing.T) {
	if _, _, err := decodeSpreadsheet([]byte("not a zip")); err == nil {
		t.Fatal("expected error for non-archive input")
	}
}

func TestDecodeWord(t *testing.T) {
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
		<w:body>
			<w:p><w:r><w:t>Hello world</w:t></w:r></w:p>
			<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>
		</w:body>
	</w:document>`
	data := buildArchive(t, [][2]string{
		{"word/document.xml", doc},
		{"word/media/image1.png", "\x89PNG"},
	})

	content, meta, err := decodeWord(data)
	if err != nil {
		t.Fatalf("decodeWord: %v", err)
	}

	if !strings.Contains(content, "Hello world") || !strings.Contains(content, "Second paragraph") {
		t.Errorf("paragraph text missing:\n%s", content)
	}
	if meta["wordCount"] != 4 {
		t.Errorf("wordCount = %v, want 4", meta["wordCount"])
	}
	if meta["hasImages"] != true {
		t.Error("media part should set hasImages")
	}
	if meta["warningCount"] != 0 {
		t.Errorf("warningCount = %v, want 0", meta["warningCount"])
	}
}

func TestDecodeSlides(t *testing.T) {
	data := buildArchive(t, [][2]string{
		{"ppt/slides/slide1.xml", `<sld><txBody><t>Agenda</t></txBody></sld>`},
		{"ppt/slides/slide2.xml", `<sld><txBody><t>Results</t></txBody></sld>`},
		{"ppt/notesSlides/notesSlide1.xml", `<notes><t>remember the demo</t></notes>`},
		{"ppt/media/chart.png", "binary"},
	})

	content, meta, err := decodeSlides(data)
	if err != nil {
		t.Fatalf("decodeSlides: %v", err)
	}

	if !strings.Contains(content, "Slide 1:\nAgenda") {
		t.Errorf("slide 1 block missing:\n%s", content)
	}
	if !strings.Contains(content, "Slide 2:\nResults") {
		t.Errorf("slide 2 block missing:\n%s", content)
	}
	if !strings.Contains(content, "Notes 1: remember the demo") {
		t.Errorf("speaker notes missing:\n%s", content)
	}
	if meta["slideCount"] != 2 {
		t.Errorf("slideCount = %v, want 2", meta["slideCount"])
	}
	if meta["hasNotes"] != true {
		t.Error("hasNotes should be true")
	}
	if !reflect.DeepEqual(meta["titles"], []string{"Agenda", "Results"}) {
		t.Errorf("titles = %v, want [Agenda Results]", meta["titles"])
	}
}

func TestDecodeSlidesWithoutSlideParts(t *testing.T) {
	data := buildArchive(t, [][2]string{{"ppt/other.xml", "<x/>"}})
	if _, _, err := decodeSlides(data); err == nil {
		t.Fatal("expected error when archive has no slide parts")
	}
}
