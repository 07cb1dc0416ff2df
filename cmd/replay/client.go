package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/service"
)

// Client drives one warehouse session over the REST API.
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, bytes.TrimSpace(data))
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

// LoadConfig fetches a scenario definition from the server.
func (c *Client) LoadConfig(ctx context.Context, name string) (*engine.GameConfig, error) {
	var config engine.GameConfig
	if err := c.do(ctx, http.MethodGet, "/api/configs/"+url.PathEscape(name), nil, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// CreateSession starts a session on the named scenario and remembers its ID.
func (c *Client) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	var session service.SessionInfo
	body := map[string]string{"config_name": configName}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return nil, err
	}
	c.sessionID = session.ID
	return &session, nil
}

func (c *Client) GetState(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) Reset(ctx context.Context) (*engine.GameState, error) {
	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (c *Client) Push(ctx context.Context, direction string) (*service.PushResult, error) {
	var result service.PushResult
	body := map[string]string{"direction": direction}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/push"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) BulkPush(ctx context.Context, moves []string) (*service.BulkPushResult, error) {
	var result service.BulkPushResult
	body := map[string][]string{"moves": moves}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/bulk-push"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
