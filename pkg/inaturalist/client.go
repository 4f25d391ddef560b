package inaturalist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"inatdl/pkg/errors"
	"inatdl/pkg/logger"
	"inatdl/pkg/ratelimit"
)

// Client wraps an http.Client for both the public API and the authenticated
// web pages. The session cookie is attached once at construction, and every
// request passes through the shared rate gate before hitting the wire.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	gate       ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a new iNaturalist client. A zero timeout leaves the
// transport defaults in place.
func NewClient(timeout time.Duration, gate ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if gate == nil {
		gate = ratelimit.NewInterval(1.0)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent": "inatdl/1.0",
		},
		gate:   gate,
		logger: log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetSessionCookie attaches the web session cookie to every subsequent
// request made by this client.
func (c *Client) SetSessionCookie(value string) {
	if value == "" {
		return
	}
	c.headers["Cookie"] = fmt.Sprintf("%s=%s", SessionCookieName, value)
}

// Get performs a rate-gated GET request
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	return c.doRequest(req)
}

// GetJSON performs a rate-gated GET request and decodes the JSON response
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := CheckStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// doRequest waits for the rate gate, applies the configured headers and
// performs the request.
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	c.gate.Wait()

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// CheckStatus converts a non-2xx response into a typed error
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	url := ""
	if resp.Request != nil {
		url = resp.Request.URL.String()
	}
	return &errors.Error{
		Type:    errors.TypeForStatusCode(resp.StatusCode),
		Message: fmt.Sprintf("server returned status %d for %s", resp.StatusCode, url),
		Code:    resp.StatusCode,
	}
}
