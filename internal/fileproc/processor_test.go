package fileproc

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"gidvion/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakePDF implements PDFDelegate for tests.
type fakePDF struct {
	resp domain.FileProcessResponse
	err  error
}

func (f *fakePDF) ProcessPDF(ctx context.Context, filename string, data []byte) (domain.FileProcessResponse, error) {
	if f.err != nil {
		return domain.FileProcessResponse{}, f.err
	}
	return f.resp, nil
}

func newTestProcessor(pdf PDFDelegate) *Processor {
	return New(Config{Logger: testLogger()}, pdf)
}

func TestProcessPlainText(t *testing.T) {
	p := newTestProcessor(nil)
	got := p.Process(context.Background(), domain.UploadFile{
		Name: "notes.txt", Type: "text/plain", Data: []byte("hello there"),
	})
	if got.Failed() {
		t.Fatalf("unexpected error: %s", got.Err)
	}
	if got.Content != "hello there" {
		t.Errorf("content = %q", got.Content)
	}
}

func TestProcessRejectsOversizedFile(t *testing.T) {
	p := New(Config{MaxFileSize: 10, Logger: testLogger()}, nil)
	got := p.Process(context.Background(), domain.UploadFile{
		Name: "big.txt", Type: "text/plain", Data: []byte("this is more than ten bytes"),
	})
	if !got.Failed() {
		t.Fatal("expected size rejection")
	}
	if !strings.Contains(got.Err, domain.ErrFileTooLarge.Error()) {
		t.Errorf("err = %q, want size message", got.Err)
	}
}

func TestProcessRejectsUnsupportedType(t *testing.T) {
	p := newTestProcessor(nil)
	got := p.Process(context.Background(), domain.UploadFile{
		Name: "movie.mp4", Type: "video/mp4", Data: []byte{0, 1, 2},
	})
	if !got.Failed() {
		t.Fatal("expected unsupported-type rejection")
	}
	if !strings.Contains(got.Err, domain.ErrUnsupportedFile.Error()) {
		t.Errorf("err = %q", got.Err)
	}
}

func TestProcessExtraAllowedTypeFallsBackToText(t *testing.T) {
	p := New(Config{AllowedTypes: []string{"application/x-notes"}, Logger: testLogger()}, nil)
	got := p.Process(context.Background(), domain.UploadFile{
		Name: "custom.notes", Type: "application/x-notes", Data: []byte("raw"),
	})
	if got.Failed() {
		t.Fatalf("allow-listed type should process as text: %s", got.Err)
	}
	if got.Content != "raw" {
		t.Errorf("content = %q", got.Content)
	}
}

func TestProcessPDFDelegation(t *testing.T) {
	pdf := &fakePDF{resp: domain.FileProcessResponse{
		Content:  "extracted pdf text",
		Metadata: map[string]any{"page_count": float64(3)},
	}}
	p := newTestProcessor(pdf)

	got := p.Process(context.Background(), domain.UploadFile{
		Name: "doc.pdf", Type: "application/pdf", Data: []byte("%PDF-1.7"),
	})
	if got.Failed() {
		t.Fatalf("unexpected error: %s", got.Err)
	}
	if got.Content != "extracted pdf text" {
		t.Errorf("content = %q", got.Content)
	}
	if got.Metadata["page_count"] != float64(3) {
		t.Errorf("metadata = %v", got.Metadata)
	}
}

func TestProcessPDFDelegationFailure(t *testing.T) {
	p := newTestProcessor(&fakePDF{err: errors.New("backend down")})
	got := p.Process(context.Background(), domain.UploadFile{
		Name: "doc.pdf", Type: "application/pdf", Data: []byte("%PDF-1.7"),
	})
	if !got.Failed() {
		t.Fatal("expected delegation failure to surface as per-file error")
	}
	if !strings.Contains(got.Err, "backend down") {
		t.Errorf("err = %q", got.Err)
	}
}

func TestProcessPDFWithoutDelegate(t *testing.T) {
	p := newTestProcessor(nil)
	got := p.Process(context.Background(), domain.UploadFile{
		Name: "doc.pdf", Type: "application/pdf", Data: []byte("%PDF-1.7"),
	})
	if !got.Failed() {
		t.Fatal("expected error with no delegate configured")
	}
}

func TestProcessAllPreservesOrderAndIsolatesFailures(t *testing.T) {
	p := New(Config{BatchSize: 2, Logger: testLogger()}, nil)

	files := []domain.UploadFile{
		{Name: "a.txt", Type: "text/plain", Data: []byte("first")},
		{Name: "bad.mp4", Type: "video/mp4", Data: []byte{1}},
		{Name: "c.json", Type: "application/json", Data: []byte(`{"ok":true}`)},
		{Name: "broken.json", Type: "application/json", Data: []byte("{oops")},
		{Name: "e.csv", Type: "text/csv", Data: []byte("h\nv")},
	}

	results := p.ProcessAll(context.Background(), files)

	if len(results) != len(files) {
		t.Fatalf("got %d results, want %d", len(results), len(files))
	}
	for i, want := range []string{"a.txt", "bad.mp4", "c.json", "broken.json", "e.csv"} {
		if results[i].Filename != want {
			t.Errorf("results[%d].Filename = %q, want %q", i, results[i].Filename, want)
		}
	}
	if results[0].Failed() {
		t.Errorf("a.txt should succeed: %s", results[0].Err)
	}
	if !results[1].Failed() {
		t.Error("bad.mp4 should fail")
	}
	if results[2].Failed() {
		t.Errorf("c.json should succeed: %s", results[2].Err)
	}
	// Invalid JSON falls back to raw content, it is not an error.
	if results[3].Failed() {
		t.Errorf("broken.json should fall back, not fail: %s", results[3].Err)
	}
	if results[3].Metadata["isValidJSON"] != false {
		t.Error("broken.json should be flagged isValidJSON=false")
	}
}

func TestProcessAllCancelledContextMarksRemaining(t *testing.T) {
	p := New(Config{BatchSize: 1, Logger: testLogger()}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := []domain.UploadFile{
		{Name: "a.txt", Type: "text/plain", Data: []byte("x")},
		{Name: "b.txt", Type: "text/plain", Data: []byte("y")},
	}
	results := p.ProcessAll(ctx, files)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if !results[1].Failed() {
		t.Error("files after cancellation must carry the context error")
	}
}

func TestGetProcessingStats(t *testing.T) {
	results := []domain.ProcessedFile{
		{Filename: "a.txt", Type: "text/plain", Content: "one two three"},
		{Filename: "b.csv", Type: "text/csv", Content: "Headers: x"},
		{Filename: "c.mp4", Type: "video/mp4", Err: "unsupported"},
	}

	stats := GetProcessingStats(results)
	if stats.Processed != 2 || stats.Failed != 1 {
		t.Errorf("processed/failed = %d/%d, want 2/1", stats.Processed, stats.Failed)
	}
	if stats.ByType["text"] != 1 || stats.ByType["csv"] != 1 {
		t.Errorf("byType = %v", stats.ByType)
	}
	if stats.TotalWords != 5 {
		t.Errorf("totalWords = %d, want 5", stats.TotalWords)
	}
}

func TestFormatProcessedFilesDigest(t *testing.T) {
	digest := FormatProcessedFiles([]domain.ProcessedFile{
		{Filename: "a.txt", Type: "text/plain", Content: "body", Metadata: map[string]any{"encoding": "utf-8"}},
		{Filename: "b.mp4", Type: "video/mp4", Err: "unsupported file type"},
	})

	if !strings.Contains(digest, "File: a.txt (text/plain)") {
		t.Errorf("missing file header:\n%s", digest)
	}
	if !strings.Contains(digest, "Metadata: encoding=utf-8") {
		t.Errorf("missing metadata block:\n%s", digest)
	}
	if !strings.Contains(digest, "Error: unsupported file type") {
		t.Errorf("failed file must appear as an error annotation:\n%s", digest)
	}
	if !strings.Contains(digest, "\n---\n") {
		t.Errorf("missing separator:\n%s", digest)
	}
}
