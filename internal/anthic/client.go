package anthic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Checker-Finance/anthic-adapter/internal/httpclient"
	"github.com/Checker-Finance/anthic-adapter/internal/rate"
)

// Client reads venue reference data from the Anthic trade API.
// Credentials are supplied per call so one Client serves every tenant.
type Client struct {
	logger  *zap.Logger
	exec    *httpclient.Executor
	baseURL string
}

// NewClient builds a client. baseURL is used unless a ClientConfig overrides it.
func NewClient(logger *zap.Logger, rateMgr *rate.Manager, httpClient *http.Client, baseURL string, retryMax int, observe httpclient.Observer) *Client {
	exec := httpclient.New(logger, rateMgr, httpClient, retryMax, "anthic", observe, func(status int, body []byte) error {
		var errResp ErrorResponse
		_ = json.Unmarshal(body, &errResp)

		logger.Warn("anthic.client_error",
			zap.Int("status", status),
			zap.String("error", errResp.Error),
			zap.String("message", errResp.Message))

		msg := errResp.Message
		if msg == "" {
			msg = errResp.Error
		}
		if msg == "" {
			msg = http.StatusText(status)
		}
		return fmt.Errorf("anthic returned %d: %s", status, msg)
	})
	return &Client{
		logger:  logger,
		exec:    exec,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// LoadConfig fetches the fee schedule and token registry.
// GET /v1/config
func (c *Client) LoadConfig(ctx context.Context, cfg *ClientConfig) (*Config, error) {
	var out Config
	if err := c.getJSON(ctx, cfg, "/v1/config", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadInstamintConfig fetches the instant-mint component location.
// GET /v1/instamint/config
func (c *Client) LoadInstamintConfig(ctx context.Context, cfg *ClientConfig) (*InstamintConfig, error) {
	var out InstamintConfig
	if err := c.getJSON(ctx, cfg, "/v1/instamint/config", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadAccount fetches the account tied to the API key.
// GET /v1/account
func (c *Client) LoadAccount(ctx context.Context, cfg *ClientConfig) (*Account, error) {
	var out Account
	if err := c.getJSON(ctx, cfg, "/v1/account", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NetworkStatus fetches the current epoch.
// GET /v1/network/status
func (c *Client) NetworkStatus(ctx context.Context, cfg *ClientConfig) (*NetworkStatus, error) {
	var out NetworkStatus
	if err := c.getJSON(ctx, cfg, "/v1/network/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, cfg *ClientConfig, path string, out any) error {
	base := c.baseURL
	if cfg.BaseURL != "" {
		base = strings.TrimRight(cfg.BaseURL, "/")
	}
	return c.exec.DoJSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		URL:    base + path,
		Header: http.Header{
			"X-Api-Key": []string{cfg.APIKey},
			"Accept":    []string{"application/json"},
		},
		Endpoint: path,
		RateKey:  cfg.rateLimitKey(),
	}, out)
}
