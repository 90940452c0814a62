package letta

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
)

// ClientOption configures a Client via the functional options pattern.
type ClientOption func(*clientOptions)

// clientOptions holds all configurable fields set via ClientOption functions.
type clientOptions struct {
	environment Environment
	baseURL     string
	explicitURL bool
	token       string
	timeout     time.Duration
	httpClient  *http.Client
	retry       RetryConfig
	retrySet    bool
	headers     http.Header
	logger      hclog.Logger
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (o *clientOptions) applyDefaults() {
	if o.environment == "" {
		o.environment = EnvironmentCloud
	}
	if o.baseURL == "" {
		o.baseURL = o.environment.BaseURL()
	}
	if o.timeout == 0 {
		o.timeout = DefaultTimeout
	}
	if !o.retrySet {
		o.retry = DefaultRetryConfig()
	}
	if o.logger == nil {
		o.logger = hclog.NewNullLogger()
	}
}

// resolveOptions applies all option functions and fills defaults.
func resolveOptions(opts []ClientOption) clientOptions {
	var o clientOptions
	for _, fn := range opts {
		fn(&o)
	}
	o.applyDefaults()
	return o
}

// --- Endpoint & Auth ---

// WithEnvironment selects the cloud or self-hosted deployment.
func WithEnvironment(env Environment) ClientOption {
	return func(o *clientOptions) { o.environment = env }
}

// WithBaseURL overrides the environment's base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = baseURL
		o.explicitURL = true
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) ClientOption {
	return func(o *clientOptions) { o.token = token }
}

// --- Transport ---

// WithTimeout sets the per-request timeout for the default HTTP client.
// It does not apply to streaming requests, which stay open until closed.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) { o.timeout = timeout }
}

// WithHTTPClient replaces the default HTTP client. The client is used as-is
// for all requests, including streaming, so leave its Timeout at zero if
// long-lived streams are expected.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(o *clientOptions) { o.httpClient = httpClient }
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) ClientOption {
	return func(o *clientOptions) {
		if o.headers == nil {
			o.headers = http.Header{}
		}
		o.headers.Set(key, value)
	}
}

// WithProject sets the X-Project header, associating all operations with a
// project.
func WithProject(projectID string) ClientOption {
	return WithHeader("X-Project", projectID)
}

// WithUserID sets the user-id header identifying the calling user.
func WithUserID(userID string) ClientOption {
	return WithHeader("user-id", userID)
}

// --- Resilience & Logging ---

// WithRetryConfig replaces the default retry policy. A zero MaxAttempts
// disables retries entirely.
func WithRetryConfig(cfg RetryConfig) ClientOption {
	return func(o *clientOptions) {
		o.retry = cfg
		o.retrySet = true
	}
}

// WithLogger sets the logger used for request diagnostics. The default
// logger discards everything.
func WithLogger(logger hclog.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = logger }
}
