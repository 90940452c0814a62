package letta

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
)

// Client talks to a Letta server. Create one with New, NewCloud, NewLocal,
// or NewFromEnv, then reach operations through the service fields.
type Client struct {
	baseURL      *url.URL
	token        string
	httpClient   *http.Client
	streamClient *http.Client
	headers      http.Header
	retry        RetryConfig
	timeout      time.Duration
	logger       hclog.Logger

	// Services, one per API surface.
	Health   *HealthService
	Agents   *AgentService
	Messages *MessageService
	Tags     *TagService
	Tools    *ToolService
}

// New creates a client. With no options it targets Letta Cloud and expects a
// token via WithToken.
func New(opts ...ClientOption) (*Client, error) {
	o := resolveOptions(opts)

	base, err := url.Parse(o.baseURL)
	if err != nil {
		return nil, &URLError{URL: o.baseURL, Err: err}
	}
	if o.token != "" {
		if err := validateToken(o.token); err != nil {
			return nil, err
		}
	} else if o.environment.RequiresAuth() && !o.explicitURL {
		o.logger.Warn("cloud environment typically requires authentication")
	}

	httpClient := o.httpClient
	streamClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
		// Streams outlive any sensible request timeout, so they get a
		// client without one.
		streamClient = &http.Client{}
	}

	c := &Client{
		baseURL:      base,
		token:        o.token,
		httpClient:   httpClient,
		streamClient: streamClient,
		headers:      o.headers,
		retry:        o.retry,
		timeout:      o.timeout,
		logger:       o.logger,
	}
	c.Health = &HealthService{client: c}
	c.Agents = &AgentService{client: c}
	c.Messages = &MessageService{client: c}
	c.Tags = &TagService{client: c}
	c.Tools = &ToolService{client: c}
	return c, nil
}

// NewCloud creates a client for Letta Cloud with the given API token.
func NewCloud(token string, opts ...ClientOption) (*Client, error) {
	base := []ClientOption{WithEnvironment(EnvironmentCloud), WithToken(token)}
	return New(append(base, opts...)...)
}

// NewLocal creates a client for a self-hosted server on localhost.
func NewLocal(opts ...ClientOption) (*Client, error) {
	base := []ClientOption{WithEnvironment(EnvironmentSelfHosted)}
	return New(append(base, opts...)...)
}

// NewFromEnv creates a client from environment variables, loading a .env
// file first if one exists. LETTA_ENVIRONMENT and LETTA_BASE_URL pick the
// endpoint; the first set of LETTA_API_KEY, LETTA_TOKEN, and
// LETTA_AUTH_TOKEN supplies the token. Explicit options override the
// environment.
func NewFromEnv(opts ...ClientOption) (*Client, error) {
	_ = godotenv.Load()

	var envOpts []ClientOption
	if v := os.Getenv("LETTA_ENVIRONMENT"); v != "" {
		env, err := ParseEnvironment(v)
		if err != nil {
			return nil, err
		}
		envOpts = append(envOpts, WithEnvironment(env))
	}
	if v := os.Getenv("LETTA_BASE_URL"); v != "" {
		envOpts = append(envOpts, WithBaseURL(v))
	}
	if token, ok := tokenFromEnv(); ok {
		envOpts = append(envOpts, WithToken(token))
	}
	return New(append(envOpts, opts...)...)
}

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// get issues a GET request and decodes the response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// post issues a POST request with a JSON body and decodes the response into
// out.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// put issues a PUT request with a JSON body and decodes the response into
// out.
func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// patch issues a PATCH request with a JSON body and decodes the response
// into out.
func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

// delete issues a DELETE request and discards any response body.
func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// do runs one request through the retry engine. Each attempt rebuilds the
// request so the body can be resent.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	_, err := Retry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		err := c.doOnce(ctx, method, path, query, body, out)
		if err != nil {
			c.logger.Debug("request attempt failed", "method", method, "path", path, "error", err)
		}
		return struct{}{}, err
	})
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	c.logger.Debug("sending request", "method", method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.classify(resp)
	}
	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &SerializationError{Message: "decode response", Err: err}
	}
	return nil
}

// stream issues a POST and returns the raw response for server-sent event
// consumption. Streaming requests are not retried.
func (c *Client) stream(ctx context.Context, path string, query url.Values, body any) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, query, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	c.logger.Debug("opening event stream", "url", req.URL.String())

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := c.classify(resp)
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// newRequest builds an HTTP request with auth and configured headers
// applied.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u, err := c.baseURL.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, &URLError{URL: path, Err: err}
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &SerializationError{Message: "encode request body", Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// classify reads an error response body and turns it into a typed error,
// threading the client's timeout for 408/504 reporting.
func (c *Client) classify(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}
	opts := ClassifyOptions{Header: resp.Header, Timeout: c.timeout}
	if resp.Request != nil {
		if resp.Request.URL != nil {
			opts.URL = resp.Request.URL.String()
		}
		opts.Method = resp.Request.Method
	}
	return Classify(resp.StatusCode, string(body), opts)
}
