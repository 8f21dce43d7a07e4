package fileproc

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		mime string
		want Format
	}{
		{"report.pdf", "application/pdf", FormatPDF},
		{"report.pdf", "", FormatPDF},
		{"data.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatSpreadsheet},
		{"legacy.xls", "application/vnd.ms-excel", FormatSpreadsheet},
		{"data.xlsx", "application/octet-stream", FormatSpreadsheet}, // extension fallback
		{"notes.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", FormatWord},
		{"notes.doc", "", FormatWord},
		{"deck.pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation", FormatSlides},
		{"deck.ppt", "", FormatSlides},
		{"page.html", "text/html", FormatHTML},
		{"page.htm", "", FormatHTML},
		{"feed.xml", "application/xml", FormatXML},
		{"feed.xml", "text/xml", FormatXML},
		{"table.csv", "text/csv", FormatCSV},
		{"table.csv", "application/csv", FormatCSV},
		{"payload.json", "application/json", FormatJSON},
		{"readme.md", "", FormatText},
		{"app.log", "", FormatText},
		{"notes", "text/plain; charset=utf-8", FormatText},
		{"anything.bin", "text/x-custom", FormatText}, // generic text prefix
		{"movie.mp4", "video/mp4", FormatUnknown},
		{"blob.bin", "application/octet-stream", FormatUnknown},
	}

	for _, tt := range tests {
		got := Classify(tt.name, tt.mime)
		if got != tt.want {
			t.Errorf("Classify(%q, %q) = %s, want %s", tt.name, tt.mime, got, tt.want)
		}
	}
}

func TestIsFileSupportedAgreesWithDispatch(t *testing.T) {
	if !IsFileSupported("data.csv", "text/csv") {
		t.Error("csv must be supported")
	}
	if !IsFileSupported("unknown.weird", "text/whatever") {
		t.Error("generic text/ MIME must be supported")
	}
	if IsFileSupported("blob.weird", "application/x-proprietary") {
		t.Error("unknown MIME and extension without text/ prefix must be unsupported")
	}
}

func TestMIMEWinsOverExtension(t *testing.T) {
	// Declared type takes priority over the filename.
	if got := Classify("misnamed.csv", "application/json"); got != FormatJSON {
		t.Errorf("Classify = %s, want %s", got, FormatJSON)
	}
}
