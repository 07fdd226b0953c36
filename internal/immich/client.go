package immich

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/immich-offline-remover/pkg/httpclient"
)

// Client talks to the Immich asset API
type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
	logger  *slog.Logger
}

// ClientConfig holds configuration for creating a Client
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	SkipTLS bool
	Logger  *slog.Logger
}

// NewClient creates a new Immich API client
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.Timeout
	httpCfg.SkipTLSVerify = cfg.SkipTLS

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpclient.New(httpCfg),
		logger:  logger.With("component", "immich_client"),
	}
}

// DeleteAssets moves the given assets to the trash in a single bulk request.
// Only 200, 201 and 204 count as success; any other status yields an *APIError.
func (c *Client) DeleteAssets(ctx context.Context, ids []uuid.UUID) error {
	if err := c.request(ctx, http.MethodDelete, "/api/assets", BulkIDsRequest{IDs: ids}); err != nil {
		return fmt.Errorf("delete %d assets: %w", len(ids), err)
	}

	c.logger.DebugContext(ctx, "trashed assets", "count", len(ids))
	return nil
}

// Close closes the underlying HTTP client connections
func (c *Client) Close() {
	c.http.Close()
}

// request executes an API request with authentication and status handling
func (c *Client) request(ctx context.Context, method, path string, body any) error {
	fullURL := c.baseURL + path

	header := http.Header{}
	header.Set("x-api-key", c.apiKey)

	c.logger.DebugContext(ctx, "API request",
		"method", method,
		"url", fullURL)

	resp, err := c.http.SendJSON(ctx, method, fullURL, body, header)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}

	respBody := httpclient.ReadBody(resp)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	default:
		return &APIError{StatusCode: resp.StatusCode, Body: respBody}
	}
}
