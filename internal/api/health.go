package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gidvion/internal/metrics"
)

// Health probes GET /health once; any 2xx counts as healthy. The probe
// deliberately skips the retry helper so a poller sees failures
// promptly.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.mapTransportError(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp.StatusCode, nil)
	}
	return nil
}

// HealthPoller probes the backend on a fixed interval and reports
// transitions to a callback. The chat surface uses it to disable sends
// while the backend is down instead of letting them fail silently.
type HealthPoller struct {
	client   *Client
	interval time.Duration
	onChange func(healthy bool)
	logger   *slog.Logger
}

const defaultHealthInterval = 30 * time.Second

func NewHealthPoller(client *Client, interval time.Duration, onChange func(healthy bool), logger *slog.Logger) *HealthPoller {
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthPoller{
		client:   client,
		interval: interval,
		onChange: onChange,
		logger:   logger,
	}
}

// Start probes immediately and then on every tick, blocking until the
// context is cancelled. The callback fires only on state transitions.
func (p *HealthPoller) Start(ctx context.Context) {
	p.logger.Info("health poller started", "interval", p.interval)

	// Prime with an unknown state so the first probe always reports.
	known := false
	healthy := false

	probe := func() {
		err := p.client.Health(ctx)
		now := err == nil
		if now {
			metrics.BackendHealthy.Set(1)
		} else {
			metrics.BackendHealthy.Set(0)
		}
		if !known || now != healthy {
			known = true
			healthy = now
			if !now {
				p.logger.Warn("backend unhealthy", "err", err)
			} else {
				p.logger.Info("backend healthy")
			}
			if p.onChange != nil {
				p.onChange(now)
			}
		}
	}

	probe()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("health poller stopped")
			return
		case <-ticker.C:
			probe()
		}
	}
}
