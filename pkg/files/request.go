package files

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ciyex-org/ciyex-platform-sdk/pkg/response"
)

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + basePath + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.resolveAuthToken(ctx))

	return req, nil
}

// send dispatches req and turns any non-2xx status into a *StatusError.
// On success the caller owns resp.Body.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send %s %s: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, newStatusError(req, resp)
	}

	return resp, nil
}

func (c *Client) doBodiless(req *http.Request) error {
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) doBytes(req *http.Request) ([]byte, error) {
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", req.Method, req.URL.Path, err)
	}
	return data, nil
}

func (c *Client) doEnvelope(req *http.Request) (response.Envelope, error) {
	data, err := c.doBytes(req)
	if err != nil {
		return nil, err
	}

	env, err := response.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return env, nil
}
