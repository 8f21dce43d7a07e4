package fileproc

import (
	"context"
	"fmt"

	"gidvion/internal/domain"
)

// decodePDF delegates extraction to the backend. PDFs are the one
// format the client does not decode locally.
func (p *Processor) decodePDF(ctx context.Context, f domain.UploadFile) (string, map[string]any, error) {
	if p.pdf == nil {
		return "", nil, fmt.Errorf("pdf processing unavailable: no backend configured")
	}

	resp, err := p.pdf.ProcessPDF(ctx, f.Name, f.Data)
	if err != nil {
		return "", nil, fmt.Errorf("pdf processing: %w", err)
	}

	meta := resp.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return resp.Content, meta, nil
}
