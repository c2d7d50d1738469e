package upstream

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// callTimeout is the single fixed per-call deadline. There are no retries.
const callTimeout = 30 * time.Second

// Client talks to the upstream Translation Helps service. It is safe for
// concurrent use; one Client is shared for the process lifetime.
type Client struct {
	baseURL string // MCP endpoint, e.g. https://host/api/mcp
	apiBase string // baseURL with the /api/mcp suffix stripped
	http    *http.Client
}

// New creates a Client for the given MCP endpoint URL. When verifyTLS is
// false, certificate verification is disabled.
func New(baseURL string, verifyTLS bool) *Client {
	transport := http.DefaultTransport
	if !verifyTLS {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		transport = t
	}
	return &Client{
		baseURL: baseURL,
		apiBase: strings.TrimSuffix(baseURL, "/api/mcp"),
		http: &http.Client{
			Timeout:   callTimeout,
			Transport: transport,
		},
	}
}

// Close releases idle connections held by the shared HTTP client.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Ping probes upstream connectivity. Used once at startup; failure is
// reported to the caller, not retried.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, c.baseURL+"?method=ping")
	return err
}

// ListTools fetches the upstream tool catalog via GET, which is the request
// form the upstream supports for tools/list.
func (c *Client) ListTools(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, c.baseURL+"?method=tools/list")
}

// CallTool dispatches a tool invocation. Tools in the route table go to
// their direct REST endpoint as a GET with admitted query parameters;
// anything else falls back to a generic POST against the MCP endpoint.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	route, ok := RouteFor(name)
	if !ok {
		return c.CallMethod(ctx, "tools/call", map[string]any{
			"name":      name,
			"arguments": args,
		})
	}

	u := c.apiBase + route.Path
	if q := route.Query(args); len(q) > 0 {
		u += "?" + q.Encode()
	}
	slog.Debug("routing tool call", "tool", name, "url", u)
	return c.get(ctx, u)
}

// CallMethod POSTs a bare {method, params} body to the MCP endpoint. The
// upstream expects this non-standard framing rather than full JSON-RPC.
func (c *Client) CallMethod(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"method": method,
		"params": params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) get(ctx context.Context, rawURL string) (json.RawMessage, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return nil, fmt.Errorf("bad url %q: %w", rawURL, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

// do executes the request and classifies failures. Cancellation propagates
// unwrapped so callers can tell a control signal from an upstream fault.
func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, truncate(body, 200))
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPayload, truncate(body, 200))
	}
	return json.RawMessage(body), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
