package cloudagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPTransport dispatches Requests to a cloud agent over HTTP, the way
// pkg/agent/transport/http.HTTPTransport dispatches SecureMessages — here
// POSTing to {baseURL}/agency/msg, the cloud-agent endpoint name this
// protocol uses.
type HTTPTransport struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPTransport returns an HTTPTransport with a 30s request timeout.
func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewHTTPTransportWithClient returns an HTTPTransport using a caller-supplied
// http.Client, for custom timeouts/TLS/retry policy.
func NewHTTPTransportWithClient(baseURL string, httpClient *http.Client) *HTTPTransport {
	return &HTTPTransport{baseURL: baseURL, httpClient: httpClient}
}

func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := t.baseURL + "/agency/msg"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Agentconn-Message-ID", req.ID)
	httpReq.Header.Set("X-Agentconn-Message-Type", req.Type)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("agency request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read agency response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agency HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return &Response{Payload: respBody}, nil
}
