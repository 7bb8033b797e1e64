package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client drives a remote environment.
type Client struct {
	serverURL string
	http      *http.Client
}

func NewClient(serverURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		http:      httpClient,
	}
}

func (c *Client) Reset(ctx context.Context) ([]float64, error) {
	var resp ResetResponse
	err := c.do(ctx, http.MethodPost, "/reset", nil, &resp)
	return resp.Observation, err
}

func (c *Client) Step(ctx context.Context, action int) (StepResponse, error) {
	var resp StepResponse
	err := c.do(ctx, http.MethodPost, "/step", StepRequest{Action: action}, &resp)
	return resp, err
}

func (c *Client) Payoffs(ctx context.Context) (PayoffsResponse, error) {
	var resp PayoffsResponse
	err := c.do(ctx, http.MethodGet, "/payoffs", nil, &resp)
	return resp, err
}

func (c *Client) Info(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/info", nil, &resp)
	return resp, err
}

func (c *Client) Render(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/render", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("render: status %d: %s", resp.StatusCode, body)
	}
	return string(body), nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
