// Package httpclient runs rate-limited JSON requests against the venue API.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	"github.com/Checker-Finance/anthic-adapter/internal/rate"
)

// Backoff returns the sleep before retry number attempt+1.
func Backoff(attempt int) time.Duration {
	switch attempt {
	case 0:
		return 100 * time.Millisecond
	case 1:
		return 250 * time.Millisecond
	default:
		return 500 * time.Millisecond
	}
}

// Observer receives the outcome of every request. status is 0 when no response
// arrived.
type Observer func(endpoint string, status int, elapsed time.Duration)

// Request describes one call. Body is re-sent verbatim on every attempt.
type Request struct {
	Method   string
	URL      string
	Header   http.Header
	Body     []byte
	Endpoint string // label for logs and metrics
	RateKey  string
}

// Executor handles rate-limited, retrying HTTP execution with JSON decoding.
// Every failure it returns wraps apperr.ErrUpstream.
type Executor struct {
	logger       *zap.Logger
	rateMgr      *rate.Manager
	http         *http.Client
	retryMax     int
	venueTag     string
	observe      Observer
	errorHandler func(status int, body []byte) error
}

// New creates an Executor. errorHandler turns a 4xx body into a venue error; when
// nil a generic status error is returned. rateMgr and observe may be nil.
func New(
	logger *zap.Logger,
	rateMgr *rate.Manager,
	httpClient *http.Client,
	retryMax int,
	venueTag string,
	observe Observer,
	errorHandler func(status int, body []byte) error,
) *Executor {
	return &Executor{
		logger:       logger,
		rateMgr:      rateMgr,
		http:         httpClient,
		retryMax:     retryMax,
		venueTag:     venueTag,
		observe:      observe,
		errorHandler: errorHandler,
	}
}

// DoJSON executes r and decodes a successful body into out. Transport errors and
// 5xx responses are retried up to retryMax times; 4xx responses never are.
func (e *Executor) DoJSON(ctx context.Context, r Request, out any) error {
	if e.rateMgr != nil {
		if err := e.rateMgr.Wait(ctx, r.RateKey); err != nil {
			return fmt.Errorf("%w: rate limit wait: %v", apperr.ErrUpstream, err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= e.retryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(Backoff(attempt - 1)):
			case <-ctx.Done():
				return fmt.Errorf("%w: %s: %v", apperr.ErrUpstream, r.Endpoint, ctx.Err())
			}
		}

		status, body, elapsed, err := e.send(ctx, r)
		if e.observe != nil {
			e.observe(r.Endpoint, status, elapsed)
		}
		if err != nil {
			lastErr = err
			e.logger.Warn(e.venueTag+".http_failed",
				zap.String("endpoint", r.Endpoint),
				zap.Error(err),
				zap.Int("attempt", attempt))
			continue
		}

		if status >= 500 {
			e.logger.Warn(e.venueTag+".server_error",
				zap.Int("status", status),
				zap.String("endpoint", r.Endpoint),
				zap.Duration("latency", elapsed))
			lastErr = fmt.Errorf("%s server error: %d", e.venueTag, status)
			continue
		}

		if status >= 400 {
			if e.errorHandler != nil {
				return fmt.Errorf("%w: %s: %w", apperr.ErrUpstream, r.Endpoint, e.errorHandler(status, body))
			}
			return fmt.Errorf("%w: %s returned %d", apperr.ErrUpstream, r.Endpoint, status)
		}

		if out != nil && len(body) > 0 {
			if err := json.Unmarshal(body, out); err != nil {
				e.logger.Warn(e.venueTag+".decode_failed",
					zap.Error(err),
					zap.String("endpoint", r.Endpoint),
					zap.Int("body_len", len(body)))
				return fmt.Errorf("%w: %s: decode failed: %v", apperr.ErrUpstream, r.Endpoint, err)
			}
		}

		e.logger.Debug(e.venueTag+".http_success",
			zap.String("endpoint", r.Endpoint),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed))
		return nil
	}

	return fmt.Errorf("%w: %s failed after %d attempts: %v", apperr.ErrUpstream, r.Endpoint, e.retryMax+1, lastErr)
}

func (e *Executor) send(ctx context.Context, r Request) (int, []byte, time.Duration, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return 0, nil, 0, err
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := e.http.Do(req)
	if err != nil {
		return 0, nil, time.Since(start), err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	return resp.StatusCode, raw, time.Since(start), err
}
