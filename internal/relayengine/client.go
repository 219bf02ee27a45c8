package relayengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/relaycore/dynrelay/internal/logging"
)

// client is a small, pooled HTTP client for MediaMTX's REST control
// plane, mirroring the teacher's internal/mediamtx client shape.
type client struct {
	httpClient *http.Client
	baseURL    string
	log        *logging.Logger
}

func newClient(baseURL string, timeout time.Duration, log *logging.Logger) *client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: baseURL,
		log:     log,
	}
}

func (c *client) doJSON(ctx context.Context, op, method, path string, body interface{}) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("relayengine: marshal request for %s: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("relayengine: build request for %s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.WithField("op", op).WithField("method", method).WithField("path", path).Debug("engine request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("relayengine: %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("relayengine: read response for %s: %w", op, err)
	}

	if resp.StatusCode >= 400 {
		return respBody, resp.StatusCode, newHTTPError(op, resp.StatusCode, string(respBody))
	}
	return respBody, resp.StatusCode, nil
}

func (c *client) post(ctx context.Context, op, path string, body interface{}) error {
	_, _, err := c.doJSON(ctx, op, http.MethodPost, path, body)
	return err
}

func (c *client) get(ctx context.Context, op, path string, out interface{}) error {
	respBody, _, err := c.doJSON(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if len(respBody) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, out)
}
