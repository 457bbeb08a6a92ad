package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPTool is a tool for making HTTP requests.
//
// It supports GET and POST methods and returns the response body as the
// tool's text result. Useful for workflows that need to:
//   - Fetch data from REST APIs
//   - Send data to webhooks
//   - Interact with external services
//
// Configuration:
//   - method: HTTP method ("GET" or "POST", defaults to "GET")
//   - url: Target URL (falls back to the input text when absent)
//   - headers: Optional map of HTTP headers
//   - body: Optional request body (for POST requests)
type HTTPTool struct {
	client *http.Client
}

// NewHTTPTool creates a new HTTP tool with default settings.
func NewHTTPTool() *HTTPTool {
	return &HTTPTool{client: &http.Client{}}
}

// Name returns the tool identifier.
func (h *HTTPTool) Name() string {
	return "http_request"
}

// Call executes an HTTP request built from config, falling back to input as
// the URL when config carries none.
func (h *HTTPTool) Call(ctx context.Context, input string, config map[string]interface{}) (string, error) {
	urlStr, ok := config["url"].(string)
	if !ok || urlStr == "" {
		urlStr = strings.TrimSpace(input)
	}
	if urlStr == "" {
		return "", fmt.Errorf("http_request: url parameter required (string)")
	}

	method := "GET"
	if m, ok := config["method"].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}
	if method != "GET" && method != "POST" {
		return "", fmt.Errorf("http_request: unsupported HTTP method: %s (supported: GET, POST)", method)
	}

	var body io.Reader
	if bodyStr, ok := config["body"].(string); ok && bodyStr != "" {
		body = bytes.NewBufferString(bodyStr)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return "", fmt.Errorf("http_request: create request: %w", err)
	}

	if headers, ok := config["headers"].(map[string]interface{}); ok {
		for key, value := range headers {
			if valueStr, ok := value.(string); ok {
				req.Header.Set(key, valueStr)
			}
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http_request: execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("http_request: read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("http_request: received status %d: %s", resp.StatusCode, string(respBody))
	}

	return string(respBody), nil
}
