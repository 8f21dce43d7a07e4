// Package api is the HTTP client for the Gidvion backend. All LLM
// calls, persistence and auth live server-side; this package only
// shapes requests, maps failures onto the domain error taxonomy and
// decodes responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gidvion/internal/domain"
)

// TokenSource supplies bearer credentials for authenticated calls.
// Implemented by the session store; nil means anonymous.
type TokenSource interface {
	AuthToken() (tokenType, token string, ok bool)
}

// Config configures the backend client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Tokens  TokenSource
	Logger  *slog.Logger

	// OnUnauthorized runs once per 401 so the owner can evict the local
	// session before the error reaches the caller.
	OnUnauthorized func()
}

// Client talks to the Gidvion backend.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	logger         *slog.Logger
	onUnauthorized func()
}

func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		http:           sharedHTTPClient(cfg.Timeout),
		tokens:         cfg.Tokens,
		logger:         cfg.Logger,
		onUnauthorized: cfg.OnUnauthorized,
	}
}

// sharedHTTPClient returns a pooled HTTP client shared by all calls.
func sharedHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if tokenType, token, ok := c.tokens.AuthToken(); ok {
		if tokenType == "" {
			tokenType = "Bearer"
		}
		req.Header.Set("Authorization", tokenType+" "+token)
	}
}

// doJSON issues one request with a JSON body (in may be nil) and
// decodes a JSON response into out (out may be nil). GETs go through
// the transient-retry helper; mutating requests are sent exactly once.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	buildReq := func() (*http.Request, error) {
		var body io.Reader
		if in != nil {
			payload, err := json.Marshal(in)
			if err != nil {
				return nil, fmt.Errorf("marshal request: %w", err)
			}
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		c.authorize(req)
		return req, nil
	}

	var (
		resp *http.Response
		err  error
	)
	if method == http.MethodGet {
		resp, err = doWithRetry(ctx, c.http, buildReq, c.logger)
	} else {
		var req *http.Request
		req, err = buildReq()
		if err != nil {
			return err
		}
		resp, err = c.http.Do(req)
	}
	if err != nil {
		return c.mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.mapStatus(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// mapTransportError folds low-level failures into the domain taxonomy.
func (c *Client) mapTransportError(err error) error {
	var rerr *retryableError
	if errors.As(err, &rerr) {
		return c.statusError(rerr.statusCode, []byte(rerr.body))
	}

	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
}

// mapStatus converts a non-2xx response into a domain error, preferring
// the backend's detail message when one is present.
func (c *Client) mapStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return c.statusError(resp.StatusCode, body)
}

func (c *Client) statusError(code int, body []byte) error {
	switch {
	case code == http.StatusUnauthorized:
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return domain.ErrUnauthorized
	case code == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case code >= 500:
		return domain.ErrServer
	}

	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return fmt.Errorf("backend: %s", detail.Detail)
	}
	return fmt.Errorf("backend: HTTP %d", code)
}
