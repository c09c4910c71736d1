// Package upstream provides the shared HTTP machinery for the GitHub and
// LeetCode stats services: JSON GETs guarded by a circuit breaker and an
// exponential-backoff retry loop.
package upstream

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/codetrack-hub/codetrack-backend/config"
	"github.com/codetrack-hub/codetrack-backend/pkg/circuitbreaker"
	"github.com/codetrack-hub/codetrack-backend/pkg/retry"
)

// ErrBaseURLMissing is returned when the service base URL is not configured.
var ErrBaseURLMissing = errors.New("upstream: base URL not configured")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Service string
	Path    string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d", e.Service, e.Path, e.Code)
}

// IsNotFound reports whether the error is an upstream 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Client is a JSON GET client for one upstream service.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
	retryCfg   retry.Config
	logger     *slog.Logger
}

// NewClient builds a client from the upstream configuration. The stats proxy
// services sit behind self-signed certificates in some deployments, so TLS
// verification is configurable.
func NewClient(name string, cfg config.UpstreamConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.MaxRetries + 1
	retryCfg.InitialDelay = cfg.RetryBaseDelay
	retryCfg.MaxDelay = cfg.RetryMaxDelay
	retryCfg.RetryIf = isRetryable

	return &Client{
		name:    name,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             name,
			FailureThreshold: cfg.BreakerThreshold,
			OpenTimeout:      cfg.BreakerTimeout,
		}),
		retryCfg: retryCfg,
		logger:   logger,
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// GetJSON fetches path (plus optional query) and decodes the response into
// result. 404s are permanent; connection errors and 5xx are retried.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, result any) error {
	if c.baseURL == "" {
		return ErrBaseURLMissing
	}
	if err := c.breaker.Allow(); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}

	err := retry.Do(ctx, c.retryCfg, func(ctx context.Context) error {
		return c.getOnce(ctx, path, query, result)
	})
	if err != nil {
		c.breaker.RecordFailure()
		return err
	}
	c.breaker.RecordSuccess()
	return nil
}

func (c *Client) getOnce(ctx context.Context, path string, query url.Values, result any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("%s: create request: %w", c.name, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request %s: %w", c.name, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", c.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{Service: c.name, Path: path, Code: resp.StatusCode, Body: truncate(string(body), 256)}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return se
		}
		return retry.Permanent(se)
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return retry.Permanent(fmt.Errorf("%s: decode %s: %w", c.name, path, err))
		}
	}
	return nil
}

func isRetryable(err error) bool {
	if retry.IsPermanent(err) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
