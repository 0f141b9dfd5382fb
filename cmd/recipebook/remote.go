package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alchemorsel/recipebook/internal/infrastructure/config"
	"github.com/alchemorsel/recipebook/internal/infrastructure/container"
)

const remoteTimeout = 10 * time.Second

// errLocalCache explains why a cache command cannot act on an in-process cache
var errLocalCache = fmt.Errorf("cache.backend is %q, so the running server holds its own cache; "+
	"pass --server <url> to reach it or switch cache.backend to %q", container.BackendMemory, container.BackendRedis)

// cacheMaintainer is implemented by the catalog service and by serverClient
type cacheMaintainer interface {
	RefreshPopularCategories(ctx context.Context) ([]string, error)
	ClearCaches(ctx context.Context) error
}

// runCacheCommand runs fn against the server given by --server, or against
// the shared Redis cache. An in-process cache would only affect this command.
func runCacheCommand(ctx context.Context, opts *options, fn func(ctx context.Context, c cacheMaintainer) error) error {
	if opts.serverURL != "" {
		return fn(ctx, newServerClient(opts.serverURL))
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if cfg.Cache.Backend != container.BackendRedis {
		return errLocalCache
	}
	return runCore(ctx, opts, func(ctx context.Context, s services) error {
		return fn(ctx, s.Catalog)
	})
}

// notifyServer asks the server given by --server to drop its caches after the
// catalog changed underneath it
func notifyServer(ctx context.Context, opts *options) error {
	if opts.serverURL == "" {
		return nil
	}
	if err := newServerClient(opts.serverURL).ClearCaches(ctx); err != nil {
		return fmt.Errorf("catalog updated but the server cache was not cleared: %w", err)
	}
	return nil
}

// serverClient calls the cache endpoints of a running server
type serverClient struct {
	baseURL    string
	httpClient *http.Client
}

func newServerClient(baseURL string) *serverClient {
	return &serverClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: remoteTimeout},
	}
}

type remoteResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *serverClient) post(ctx context.Context, path string) (*remoteResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	var body remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode server response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !body.Success {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Message)
	}
	return &body, nil
}

// RefreshPopularCategories recomputes the popular categories held by the server
func (c *serverClient) RefreshPopularCategories(ctx context.Context) ([]string, error) {
	body, err := c.post(ctx, "/api/v1/categories/popular/refresh")
	if err != nil {
		return nil, err
	}
	var categories []string
	if err := json.Unmarshal(body.Data, &categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return categories, nil
}

// ClearCaches empties every cache held by the server
func (c *serverClient) ClearCaches(ctx context.Context) error {
	_, err := c.post(ctx, "/api/v1/caches/clear")
	return err
}
