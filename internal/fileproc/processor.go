// Package fileproc turns uploaded files into plain text plus metadata
// that can ride along with a chat query as extra context. Everything is
// decoded locally from the bytes already in memory; only PDFs are
// delegated to the backend's file-processing endpoint.
package fileproc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gidvion/internal/domain"
	"gidvion/internal/metrics"
)

// PDFDelegate uploads a PDF to the backend for extraction. Implemented
// by the api client; kept as an interface so tests can fake it.
type PDFDelegate interface {
	ProcessPDF(ctx context.Context, filename string, data []byte) (domain.FileProcessResponse, error)
}

// Config tunes the processor.
type Config struct {
	// EnableOCR is accepted for config-surface compatibility; no local
	// decoder consumes it.
	EnableOCR    bool
	MaxFileSize  int64    // bytes; default 50 MiB
	BatchSize    int      // concurrent files per wave; default 3
	AllowedTypes []string // extra MIME types accepted beyond the dispatch table
	Logger       *slog.Logger
}

// Processor is the file content extractor.
type Processor struct {
	enableOCR   bool
	maxFileSize int64
	batchSize   int
	extraTypes  map[string]bool
	pdf         PDFDelegate
	logger      *slog.Logger
}

const (
	defaultMaxFileSize = 50 * 1024 * 1024
	defaultBatchSize   = 3
)

// New creates a Processor. pdf may be nil, in which case PDF files fail
// with a per-file error instead of being delegated.
func New(cfg Config, pdf PDFDelegate) *Processor {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	extra := make(map[string]bool, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		extra[strings.ToLower(t)] = true
	}
	return &Processor{
		enableOCR:   cfg.EnableOCR,
		maxFileSize: cfg.MaxFileSize,
		batchSize:   cfg.BatchSize,
		extraTypes:  extra,
		pdf:         pdf,
		logger:      cfg.Logger,
	}
}

// Process extracts one file. Decoder failures come back in the Err
// field; Process itself never panics past its boundary.
func (p *Processor) Process(ctx context.Context, f domain.UploadFile) (result domain.ProcessedFile) {
	result = domain.ProcessedFile{Filename: f.Name, Type: f.Type}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("decoder panic", "file", f.Name, "panic", r)
			result.Content = ""
			result.Err = fmt.Sprintf("processing failed: %v", r)
		}
		if result.Failed() {
			metrics.FilesFailed.Inc()
		} else {
			metrics.FilesProcessed.Inc()
		}
	}()

	if f.Size() > p.maxFileSize {
		result.Err = fmt.Sprintf("%v: %d bytes (max %d)", domain.ErrFileTooLarge, f.Size(), p.maxFileSize)
		return result
	}

	format := Classify(f.Name, f.Type)
	if format == FormatUnknown && p.extraTypes[strings.ToLower(f.Type)] {
		format = FormatText
	}

	var (
		content string
		meta    map[string]any
		err     error
	)

	switch format {
	case FormatPDF:
		content, meta, err = p.decodePDF(ctx, f)
	case FormatSpreadsheet:
		content, meta, err = decodeSpreadsheet(f.Data)
	case FormatWord:
		content, meta, err = decodeWord(f.Data)
	case FormatSlides:
		content, meta, err = decodeSlides(f.Data)
	case FormatHTML:
		content, meta = decodeHTML(f.Data)
	case FormatXML:
		content, meta = decodeXML(f.Data)
	case FormatCSV:
		content, meta = decodeCSV(f.Data)
	case FormatJSON:
		content, meta = decodeJSON(f.Data)
	case FormatText:
		content = string(f.Data)
		meta = map[string]any{"encoding": "utf-8"}
	default:
		err = fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedFile, f.Name, f.Type)
	}

	if err != nil {
		p.logger.Warn("file processing failed", "file", f.Name, "format", format.String(), "err", err)
		result.Err = err.Error()
		return result
	}

	result.Content = content
	result.Metadata = meta
	p.logger.Debug("file processed", "file", f.Name, "format", format.String(), "chars", len(content))
	return result
}

// ProcessAll extracts files in waves of BatchSize. Failures are isolated
// per file and results keep input order; the call itself never fails.
func (p *Processor) ProcessAll(ctx context.Context, files []domain.UploadFile) []domain.ProcessedFile {
	results := make([]domain.ProcessedFile, len(files))

	for start := 0; start < len(files); start += p.batchSize {
		end := start + p.batchSize
		if end > len(files) {
			end = len(files)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx] = p.Process(ctx, files[idx])
			}(i)
		}
		wg.Wait()

		// A cancelled context stops further waves; remaining files are
		// marked rather than silently skipped so N in means N out.
		if ctx.Err() != nil {
			for i := end; i < len(files); i++ {
				results[i] = domain.ProcessedFile{
					Filename: files[i].Name,
					Type:     files[i].Type,
					Err:      ctx.Err().Error(),
				}
			}
			return results
		}
	}
	return results
}
