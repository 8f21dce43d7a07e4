package api

import (
	"context"
	"net/http"
	"time"

	"gidvion/internal/domain"
	"gidvion/internal/metrics"
)

// Query posts a composed chat query to the model-specific endpoint.
// It is sent exactly once; retrying is left to the user.
func (c *Client) Query(ctx context.Context, route string, req domain.QueryRequest) (*domain.QueryResponse, error) {
	start := time.Now()
	metrics.QueriesTotal.Inc()

	var resp domain.QueryResponse
	err := c.doJSON(ctx, http.MethodPost, "/query/"+route, req, &resp)
	metrics.QueryLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QueryFailures.Inc()
		c.logger.Warn("query failed", "route", route, "err", err)
		return nil, err
	}

	c.logger.Debug("query ok",
		"route", route,
		"query_id", resp.QueryID,
		"latency", time.Since(start),
	)
	return &resp, nil
}
