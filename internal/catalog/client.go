// Package catalog is the HTTP client for the service catalog collaborator,
// with optional Redis read-through caching.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"slotnik/internal/model"
)

// Client calls the catalog service for Service records.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a catalog client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// UseRedisCache configures optional Redis caching of service lookups.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// GetServices fetches service records by id set. Cached entries are served
// per id; only misses hit the catalog.
func (c *Client) GetServices(ctx context.Context, ids []int64) ([]model.Service, error) {
	out := make([]model.Service, 0, len(ids))
	var missing []int64

	for _, id := range ids {
		var svc model.Service
		if c.readCache(ctx, cacheKey(id), &svc) {
			out = append(out, svc)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.fetchServices(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, svc := range fetched {
		c.writeCache(ctx, cacheKey(svc.ID), svc)
		out = append(out, svc)
	}
	return out, nil
}

func (c *Client) fetchServices(ctx context.Context, ids []int64) ([]model.Service, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	endpoint := fmt.Sprintf("%s/api/v1/services?ids=%s", c.baseURL, url.QueryEscape(strings.Join(parts, ",")))

	var wrap struct {
		Services []model.Service `json:"services"`
	}
	if err := c.doGet(ctx, endpoint, &wrap); err != nil {
		return nil, fmt.Errorf("fetch services: %w", err)
	}
	return wrap.Services, nil
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("catalog returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func cacheKey(id int64) string {
	return fmt.Sprintf("catalog:service:%d", id)
}
