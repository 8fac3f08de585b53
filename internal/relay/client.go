// Package relay forwards cache commands to the HTTP API each agent hosts.
// Requests carry the agent's own API key; responses are decoded and returned
// as-is, with no retry or circuit breaking.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cachefleet/cachefleet/internal/domain"
)

const apiKeyHeader = "X-Api-Key"

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, agent *domain.Agent, method, path string) ([]byte, error) {
	endpoint := strings.TrimRight(agent.URL, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create agent request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, agent.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read agent response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Ping checks that the agent's cache API is reachable.
func (c *Client) Ping(ctx context.Context, agent *domain.Agent) error {
	_, err := c.do(ctx, agent, http.MethodGet, "/api/cache/ping")
	return err
}

// ListCaches fetches the agent's live key list and entries for one service.
func (c *Client) ListCaches(ctx context.Context, agent *domain.Agent, serviceName string) (*domain.CacheSnapshot, error) {
	path := "/api/cache"
	if serviceName != "" {
		path += "?service=" + url.QueryEscape(serviceName)
	}

	body, err := c.do(ctx, agent, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var snapshot domain.CacheSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("parse agent cache listing: %w", err)
	}
	if snapshot.ServiceName == "" {
		snapshot.ServiceName = serviceName
	}
	return &snapshot, nil
}

// GetCacheKey fetches a single live cache entry by key.
func (c *Client) GetCacheKey(ctx context.Context, agent *domain.Agent, key string) (*domain.CacheEntry, error) {
	body, err := c.do(ctx, agent, http.MethodGet, "/api/cache/"+url.PathEscape(key))
	if err != nil {
		return nil, err
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("parse agent cache entry: %w", err)
	}
	if entry.Key == "" {
		entry.Key = key
	}
	return &entry, nil
}

// FlushAll tells the agent to drop every cache entry it holds.
func (c *Client) FlushAll(ctx context.Context, agent *domain.Agent) (*domain.FlushResult, error) {
	body, err := c.do(ctx, agent, http.MethodPost, "/api/cache/flushall")
	if err != nil {
		return nil, err
	}

	var result domain.FlushResult
	if len(body) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("parse agent flush result: %w", err)
		}
	}
	return &result, nil
}

// ClearKey tells the agent to drop one cache entry.
func (c *Client) ClearKey(ctx context.Context, agent *domain.Agent, key string) error {
	_, err := c.do(ctx, agent, http.MethodDelete, "/api/cache/"+url.PathEscape(key))
	return err
}
