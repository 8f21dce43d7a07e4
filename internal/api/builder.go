package api

import (
	"context"
	"net/http"

	"gidvion/internal/domain"
)

// SubmitBuild fires off a project-builder job. The backend offers no
// status endpoint for it, so this is submit-and-forget.
func (c *Client) SubmitBuild(ctx context.Context, req domain.BuilderRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/run_project_builder", req, nil)
}
