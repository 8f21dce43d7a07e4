package fileproc

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// OOXML documents (xlsx, docx, pptx) are zip archives of XML parts.
// The decoders below walk the relevant parts with encoding/xml; no
// office library is involved.

func openArchive(data []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return zr, nil
}

func readArchiveFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("archive part not found: %s", name)
}

// collectElementText walks an XML part and concatenates the character
// data of every element with the given local name. Paragraph and break
// elements become newlines so the output stays readable.
func collectElementText(data []byte, textElem string) string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var b strings.Builder
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case textElem:
				depth++
			case "br":
				b.WriteByte('\n')
			case "tab":
				b.WriteByte('\t')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case textElem:
				depth--
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if depth > 0 {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// --- spreadsheets ---

type workbookXML struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
	} `xml:"sheets>sheet"`
}

type sheetXML struct {
	Rows []struct {
		Cells []struct {
			Type   string `xml:"t,attr"`
			Value  string `xml:"v"`
			Inline struct {
				T string `xml:"t"`
			} `xml:"is"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

type sharedStringsXML struct {
	Items []struct {
		T    string `xml:"t"`
		Runs []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// decodeSpreadsheet emits one labeled section per sheet with its
// dimensions, every populated row serialized pipe-joined.
func decodeSpreadsheet(data []byte) (string, map[string]any, error) {
	zr, err := openArchive(data)
	if err != nil {
		return "", nil, fmt.Errorf("not a spreadsheet workbook: %w", err)
	}

	var workbook workbookXML
	wbData, err := readArchiveFile(zr, "xl/workbook.xml")
	if err != nil {
		return "", nil, fmt.Errorf("not a spreadsheet workbook: %w", err)
	}
	if err := xml.Unmarshal(wbData, &workbook); err != nil {
		return "", nil, fmt.Errorf("parse workbook: %w", err)
	}

	shared := loadSharedStrings(zr)

	var b strings.Builder
	sheetNames := make([]string, 0, len(workbook.Sheets))
	for i, sheet := range workbook.Sheets {
		name := sheet.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		sheetNames = append(sheetNames, name)

		partData, err := readArchiveFile(zr, fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1))
		if err != nil {
			continue
		}
		var part sheetXML
		if err := xml.Unmarshal(partData, &part); err != nil {
			continue
		}

		maxCols := 0
		rows := make([][]string, 0, len(part.Rows))
		for _, row := range part.Rows {
			cells := make([]string, 0, len(row.Cells))
			populated := false
			for _, c := range row.Cells {
				v := cellValue(c.Type, c.Value, c.Inline.T, shared)
				if v != "" {
					populated = true
				}
				cells = append(cells, v)
			}
			if !populated {
				continue
			}
			if len(cells) > maxCols {
				maxCols = len(cells)
			}
			rows = append(rows, cells)
		}

		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "=== Sheet: %s (%d rows x %d columns) ===\n", name, len(rows), maxCols)
		for r, cells := range rows {
			fmt.Fprintf(&b, "Row %d: %s\n", r+1, strings.Join(cells, " | "))
		}
	}

	meta := map[string]any{
		"sheetCount": len(workbook.Sheets),
		"sheetNames": sheetNames,
	}
	return strings.TrimRight(b.String(), "\n"), meta, nil
}

func loadSharedStrings(zr *zip.Reader) []string {
	data, err := readArchiveFile(zr, "xl/sharedStrings.xml")
	if err != nil {
		return nil
	}
	var sst sharedStringsXML
	if err := xml.Unmarshal(data, &sst); err != nil {
		return nil
	}
	out := make([]string, 0, len(sst.Items))
	for _, si := range sst.Items {
		if si.T != "" {
			out = append(out, si.T)
			continue
		}
		var b strings.Builder
		for _, r := range si.Runs {
			b.WriteString(r.T)
		}
		out = append(out, b.String())
	}
	return out
}

func cellValue(cellType, value, inline string, shared []string) string {
	switch cellType {
	case "s":
		var idx int
		if _, err := fmt.Sscanf(value, "%d", &idx); err == nil && idx >= 0 && idx < len(shared) {
			return shared[idx]
		}
		return ""
	case "inlineStr":
		return inline
	default:
		return value
	}
}

// --- word documents ---

// decodeWord extracts the document text; embedded images are detected
// from the archive's media parts rather than rendered.
func decodeWord(data []byte) (string, map[string]any, error) {
	zr, err := openArchive(data)
	if err != nil {
		return "", nil, fmt.Errorf("not a word document: %w", err)
	}

	docData, err := readArchiveFile(zr, "word/document.xml")
	if err != nil {
		return "", nil, fmt.Errorf("not a word document: %w", err)
	}

	text := collectElementText(docData, "t")

	hasImages := false
	warnings := 0
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "word/media/") {
			hasImages = true
		}
		// Embedded OLE objects have no text representation; surface them
		// as conversion warnings the way a rich converter would.
		if strings.HasPrefix(f.Name, "word/embeddings/") {
			warnings++
		}
	}

	meta := map[string]any{
		"wordCount":      len(strings.Fields(text)),
		"characterCount": utf8.RuneCountInString(text),
		"hasImages":      hasImages,
		"warningCount":   warnings,
	}
	return text, meta, nil
}

// --- presentations ---

var (
	slidePartPattern = regexp.MustCompile(`^ppt/slides/slide[0-9]+\.xml$`)
	notesPartPattern = regexp.MustCompile(`^ppt/notesSlides/notesSlide[0-9]+\.xml$`)
)

const maxSlideTitles = 5

// decodeSlides concatenates per-slide text blocks labeled by slide
// number in archive file order, with speaker notes appended separately.
func decodeSlides(data []byte) (string, map[string]any, error) {
	zr, err := openArchive(data)
	if err != nil {
		return "", nil, fmt.Errorf("not a presentation: %w", err)
	}

	var b strings.Builder
	var titles []string
	slideCount := 0
	for _, f := range zr.File {
		if !slidePartPattern.MatchString(f.Name) {
			continue
		}
		partData, err := readArchiveFile(zr, f.Name)
		if err != nil {
			continue
		}
		slideCount++
		text := collectElementText(partData, "t")
		if slideCount > 1 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Slide %d:\n%s\n", slideCount, text)
		if len(titles) < maxSlideTitles {
			titles = append(titles, firstLine(text))
		}
	}

	if slideCount == 0 {
		return "", nil, fmt.Errorf("not a presentation: no slide parts")
	}

	hasNotes := false
	noteCount := 0
	for _, f := range zr.File {
		if !notesPartPattern.MatchString(f.Name) {
			continue
		}
		partData, err := readArchiveFile(zr, f.Name)
		if err != nil {
			continue
		}
		text := collectElementText(partData, "t")
		if text == "" {
			continue
		}
		if !hasNotes {
			b.WriteString("\nSpeaker notes:\n")
			hasNotes = true
		}
		noteCount++
		fmt.Fprintf(&b, "Notes %d: %s\n", noteCount, text)
	}

	meta := map[string]any{
		"slideCount": slideCount,
		"hasNotes":   hasNotes,
		"titles":     titles,
	}
	return strings.TrimRight(b.String(), "\n"), meta, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const maxLen = 80
	if utf8.RuneCountInString(s) > maxLen {
		runes := []rune(s)
		s = string(runes[:maxLen])
	}
	return strings.TrimSpace(s)
}
