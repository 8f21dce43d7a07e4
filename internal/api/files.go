package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"gidvion/internal/domain"
)

// ProcessPDF uploads a PDF for server-side text extraction. This is the
// extractor's one remote path; every other format decodes locally.
func (c *Client) ProcessPDF(ctx context.Context, filename string, data []byte) (domain.FileProcessResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return domain.FileProcessResponse{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return domain.FileProcessResponse{}, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.WriteField("file_type", "pdf"); err != nil {
		return domain.FileProcessResponse{}, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return domain.FileProcessResponse{}, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process-file", &buf)
	if err != nil {
		return domain.FileProcessResponse{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.FileProcessResponse{}, c.mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.FileProcessResponse{}, c.mapStatus(resp)
	}

	var out domain.FileProcessResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.FileProcessResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
