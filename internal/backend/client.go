// Package backend is the HTTP client of the tender REST backend. It returns
// raw tender payloads for the normalizer and canonical models for everything
// else.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/david/licitaciones-radar/internal/ingest"
)

// Clock returns the current instant. Tests pin it.
type Clock func() time.Time

// Config defines HTTP settings for the backend.
type Config struct {
	BaseURL      string
	Timeout      time.Duration // Default: 15s
	RateLimitRPS float64       // Default: 5
	MaxRetries   int           // Retries for GET requests. Default: 2
	Backoff      time.Duration // First retry delay, doubled per attempt. Default: 500ms
}

// StatusError is returned for non-2xx responses. Message is the response body
// or "HTTP <status>" when the body is empty.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return e.Message
}

type Client struct {
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	norm       *ingest.Normalizer
}

// New builds a Client. norm maps catalog, roster and notification payloads;
// a nil norm uses the embedded contract registry in UTC.
func New(cfg Config, norm *ingest.Normalizer) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("backend base URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 5
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if norm == nil {
		norm = ingest.NewNormalizer(nil, time.UTC)
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	burst := int(cfg.RateLimitRPS)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:    base,
		http:       &http.Client{Timeout: cfg.Timeout, Transport: transport},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		norm:       norm,
	}, nil
}

// params collects query parameters, dropping empty values.
type params url.Values

func (p params) set(key, value string) {
	if value != "" {
		url.Values(p).Set(key, value)
	}
}

func (p params) setInt(key string, n int64) {
	if n != 0 {
		url.Values(p).Set(key, strconv.FormatInt(n, 10))
	}
}

func (c *Client) get(ctx context.Context, path string, q params) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, q, nil)
}

// do sends one request. GET requests are retried on transport errors and
// 429/5xx responses with exponential backoff. An empty body yields nil.
func (c *Client) do(ctx context.Context, method, path string, q params, body any) ([]byte, error) {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + url.Values(q).Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	retries := 0
	if method == http.MethodGet {
		retries = c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			backoff := c.backoff * time.Duration(1<<uint(attempt-1))
			jitter := time.Duration(rand.Int63n(int64(c.backoff)/5 + 1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff + jitter):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		data, retry, err := c.attempt(ctx, method, target, payload)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
		log.Printf("[backend] %s %s attempt %d failed: %v", method, path, attempt+1, err)
	}
	if retries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) attempt(ctx context.Context, method, target string, payload []byte) ([]byte, bool, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, shouldRetry(ctx, err, 0), fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, shouldRetry(ctx, err, 0), fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return nil, shouldRetry(ctx, nil, resp.StatusCode), &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false, nil
	}
	return data, false, nil
}

func decodeJSON(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// shouldRetry reports whether a failed attempt is worth repeating.
func shouldRetry(ctx context.Context, err error, statusCode int) bool {
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return true
		}
		return errors.Is(err, io.ErrUnexpectedEOF)
	}
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
