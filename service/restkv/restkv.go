// Package restkv is a client for key-value stores exposed over a Redis-compatible REST API
// (Upstash / Vercel KV style): GET {base}/get/{key} and POST {base}/set/{key} with the value as body.
package restkv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bkclothing/bk-site/env"
	"github.com/bkclothing/bk-site/service/tracing"
	"github.com/bkclothing/bk-site/util"
)

func init() {
	env.RegisterValidation("KV_REST_API_URL", "omitempty,url")
}

type ErrKeyNotFound struct {
	Key string
}

func (e ErrKeyNotFound) Error() string {
	return fmt.Sprintf("key %s not found", e.Key)
}

// ErrCommand is returned when the store accepted the request but rejected the command.
type ErrCommand struct {
	Command string
	Message string
}

func (e ErrCommand) Error() string {
	return fmt.Sprintf("kv command %s failed: %s", e.Command, e.Message)
}

type result struct {
	Result *string `json:"result"`
	Error  string  `json:"error,omitempty"`
}

// Client talks to a REST key-value endpoint. It holds no connection state; every call is a single
// HTTP request.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the given endpoint. A nil httpClient uses a traced client with a
// 10 second timeout.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   10 * time.Second,
			Transport: tracing.NewTracingTransport(http.DefaultTransport, true),
		}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// Get returns the value stored at key, or ErrKeyNotFound if there is none.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := c.do(ctx, http.MethodGet, "get", key, nil)
	if err != nil {
		return nil, err
	}
	if res.Result == nil {
		return nil, ErrKeyNotFound{Key: key}
	}
	return []byte(*res.Result), nil
}

// Set replaces the value stored at key.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.do(ctx, http.MethodPost, "set", key, value)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.do(ctx, http.MethodPost, "del", key, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, command, key string, body []byte) (result, error) {
	var res result

	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, command, url.PathEscape(key))

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return res, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return res, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return res, util.BodyAsError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return res, fmt.Errorf("decoding kv %s response: %w", command, err)
	}

	if res.Error != "" {
		return res, ErrCommand{Command: command, Message: res.Error}
	}

	return res, nil
}
