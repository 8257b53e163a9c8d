package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// apiClient is a minimal HTTP client for the LinkForge API.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string, timeout time.Duration) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// do issues the request and decodes the JSON response into a generic map.
// Non-2xx responses are returned as errors carrying the API error message.
func (c *apiClient) do(ctx context.Context, method, path string, body interface{}) (map[string]interface{}, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if msg, ok := payload["error"].(string); ok {
			return payload, fmt.Errorf("%s", msg)
		}
		if msg, ok := payload["message"].(string); ok {
			return payload, fmt.Errorf("%s", msg)
		}
		return payload, fmt.Errorf("API returned %d", resp.StatusCode)
	}
	return payload, nil
}

func (c *apiClient) enqueueCampaign(ctx context.Context, body interface{}) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodPost, "/api/campaigns", body)
}

func (c *apiClient) campaignStatus(ctx context.Context, campaignID string) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodGet, "/api/campaigns/"+url.PathEscape(campaignID), nil)
}

func (c *apiClient) listCampaigns(ctx context.Context, status string) (map[string]interface{}, error) {
	path := "/api/campaigns"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *apiClient) queueStats(ctx context.Context) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodGet, "/api/campaigns/stats", nil)
}

func (c *apiClient) pauseCampaign(ctx context.Context, campaignID string) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodPost, "/api/campaigns/"+url.PathEscape(campaignID)+"/pause", nil)
}

func (c *apiClient) resumeCampaign(ctx context.Context, campaignID string) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodPost, "/api/campaigns/"+url.PathEscape(campaignID)+"/resume", nil)
}

func (c *apiClient) deleteCampaign(ctx context.Context, campaignID string, force bool) (map[string]interface{}, error) {
	path := "/api/campaigns/" + url.PathEscape(campaignID)
	if force {
		path += "?force=true"
	}
	return c.do(ctx, http.MethodDelete, path, nil)
}
