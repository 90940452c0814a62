package letta

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/tidwall/gjson"
)

// Sentinel errors returned by parsing and construction helpers.
var (
	ErrInvalidID = errors.New("letta: invalid resource id")
)

// ErrorBodyKind discriminates the parsed shape of an error response body.
type ErrorBodyKind int

const (
	// ErrorBodyText is a non-JSON body, with any enclosing <pre> wrapper stripped.
	ErrorBodyText ErrorBodyKind = iota
	// ErrorBodyUnauthorized is the {message, details, ownership} shape.
	ErrorBodyUnauthorized
	// ErrorBodyDetail is the {detail} shape.
	ErrorBodyDetail
	// ErrorBodyMessage is the {message} shape.
	ErrorBodyMessage
	// ErrorBodyJSON is any other valid JSON value, kept raw.
	ErrorBodyJSON
)

// ErrorBody is the structured form of an error response body. It is produced
// once by ParseErrorBody and never mutated. Only the fields belonging to Kind
// are populated.
type ErrorBody struct {
	Kind ErrorBodyKind

	// Message is set for the Unauthorized and Message kinds.
	Message string
	// Details and Ownership are set for the Unauthorized kind.
	Details   string
	Ownership string
	// Detail is set for the Detail kind.
	Detail string
	// Text is set for the Text kind.
	Text string
	// JSON holds the raw body for the JSON kind.
	JSON json.RawMessage
}

// ParseErrorBody parses a raw error response body into its structured form.
// JSON bodies are matched against known shapes in order of specificity:
// {message, details, ownership}, then {detail}, then {message}, falling back
// to the raw JSON value. Non-JSON bodies are kept as text, with a single
// enclosing <pre>...</pre> wrapper stripped (servers wrap plain-text errors
// in one when rendering HTML error pages).
func ParseErrorBody(body string) ErrorBody {
	if gjson.Valid(body) {
		msg := gjson.Get(body, "message")
		details := gjson.Get(body, "details")
		ownership := gjson.Get(body, "ownership")
		if msg.Type == gjson.String && details.Type == gjson.String && ownership.Type == gjson.String {
			return ErrorBody{
				Kind:      ErrorBodyUnauthorized,
				Message:   msg.String(),
				Details:   details.String(),
				Ownership: ownership.String(),
			}
		}
		if detail := gjson.Get(body, "detail"); detail.Type == gjson.String {
			return ErrorBody{Kind: ErrorBodyDetail, Detail: detail.String()}
		}
		if msg.Type == gjson.String {
			return ErrorBody{Kind: ErrorBodyMessage, Message: msg.String()}
		}
		return ErrorBody{Kind: ErrorBodyJSON, JSON: json.RawMessage(body)}
	}

	text := body
	if start := strings.Index(body, "<pre>"); start >= 0 {
		if end := strings.Index(body, "</pre>"); end >= start+len("<pre>") {
			text = body[start+len("<pre>") : end]
		}
	}
	return ErrorBody{Kind: ErrorBodyText, Text: text}
}

// bestMessage extracts a human-readable message from the body, if it has one.
func (b *ErrorBody) bestMessage() (string, bool) {
	switch b.Kind {
	case ErrorBodyText:
		if strings.TrimSpace(b.Text) == "" {
			return "", false
		}
		return b.Text, true
	case ErrorBodyUnauthorized, ErrorBodyMessage:
		return b.Message, true
	case ErrorBodyDetail:
		return b.Detail, true
	case ErrorBodyJSON:
		// First present key wins; a non-string value yields no message.
		for _, key := range []string{"message", "error", "detail"} {
			if v := gjson.GetBytes(b.JSON, key); v.Exists() {
				if v.Type == gjson.String {
					return v.String(), true
				}
				return "", false
			}
		}
	}
	return "", false
}

// errorCode extracts a machine-readable error code. Codes are only carried by
// unstructured JSON bodies, under the keys code, error_code or type.
func (b *ErrorBody) errorCode() (string, bool) {
	if b.Kind != ErrorBodyJSON {
		return "", false
	}
	for _, key := range []string{"code", "error_code", "type"} {
		if v := gjson.GetBytes(b.JSON, key); v.Exists() {
			if v.Type == gjson.String {
				return v.String(), true
			}
			return "", false
		}
	}
	return "", false
}

// isValidation reports whether the body looks like a validation failure.
func (b *ErrorBody) isValidation() bool {
	return b.Kind == ErrorBodyDetail && strings.Contains(b.Detail, "validation error")
}

// MarshalJSON serializes the body back to the wire shape it was parsed from.
func (b ErrorBody) MarshalJSON() ([]byte, error) {
	switch b.Kind {
	case ErrorBodyUnauthorized:
		return json.Marshal(struct {
			Message   string `json:"message"`
			Details   string `json:"details"`
			Ownership string `json:"ownership"`
		}{b.Message, b.Details, b.Ownership})
	case ErrorBodyDetail:
		return json.Marshal(struct {
			Detail string `json:"detail"`
		}{b.Detail})
	case ErrorBodyMessage:
		return json.Marshal(struct {
			Message string `json:"message"`
		}{b.Message})
	case ErrorBodyJSON:
		return b.JSON, nil
	default:
		return json.Marshal(b.Text)
	}
}

// String returns the raw textual representation of the body.
func (b ErrorBody) String() string {
	if b.Kind == ErrorBodyText {
		return b.Text
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return b.Text
	}
	return string(raw)
}

// TransportError wraps a failure in the HTTP transport layer: connection
// setup, request transmission, or reading a response body mid-flight.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("http request failed: %v", e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether the transport failure is a connect or timeout
// class problem worth retrying.
func (e *TransportError) Retryable() bool {
	var ne net.Error
	if errors.As(e.Err, &ne) && ne.Timeout() {
		return true
	}
	if errors.Is(e.Err, syscall.ECONNREFUSED) || errors.Is(e.Err, syscall.ECONNRESET) {
		return true
	}
	var oe *net.OpError
	if errors.As(e.Err, &oe) && oe.Op == "dial" {
		return true
	}
	return false
}

// AuthError indicates an authentication failure (401 without a structured
// unauthorized body, or an invalid token at configuration time).
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string   { return "authentication failed: " + e.Message }
func (e *AuthError) Retryable() bool { return false }

// APIError is a generic error response from the API, carrying the HTTP
// status, derived message, optional machine code, the structured body, and
// the request context when known.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	Body       *ErrorBody
	URL        string
	Method     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the status code indicates a transient condition.
func (e *APIError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsUnauthorized reports whether the error carries the structured
// unauthorized body shape the API returns for permission failures.
func (e *APIError) IsUnauthorized() bool {
	return e.Body != nil && e.Body.Kind == ErrorBodyUnauthorized
}

// IsValidationError reports whether the error body describes a validation
// failure.
func (e *APIError) IsValidationError() bool {
	return e.Body != nil && e.Body.isValidation()
}

// SerializationError indicates a response that could not be decoded into the
// expected type.
type SerializationError struct {
	Message string
	Err     error
}

func (e *SerializationError) Error() string {
	msg := "serialization error"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SerializationError) Unwrap() error   { return e.Err }
func (e *SerializationError) Retryable() bool { return false }

// StreamingError indicates a failure while consuming a server-sent event
// stream.
type StreamingError struct {
	Message string
	Err     error
}

func (e *StreamingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("streaming error: %s: %v", e.Message, e.Err)
	}
	return "streaming error: " + e.Message
}

func (e *StreamingError) Unwrap() error   { return e.Err }
func (e *StreamingError) Retryable() bool { return false }

// ConfigError indicates invalid client configuration.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string   { return "configuration error: " + e.Message }
func (e *ConfigError) Retryable() bool { return false }

// URLError indicates a malformed URL.
type URLError struct {
	URL string
	Err error
}

func (e *URLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid url %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("invalid url %q", e.URL)
}

func (e *URLError) Unwrap() error   { return e.Err }
func (e *URLError) Retryable() bool { return false }

// IOError wraps an I/O failure outside the transport, such as draining a
// response body.
type IOError struct {
	Err error
}

func (e *IOError) Error() string   { return fmt.Sprintf("i/o error: %v", e.Err) }
func (e *IOError) Unwrap() error   { return e.Err }
func (e *IOError) Retryable() bool { return false }

// TimeoutError indicates the request exceeded its time budget (HTTP 408 or
// 504). Timeout records the budget that applied.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out after %s", e.Timeout)
}

func (e *TimeoutError) Retryable() bool { return true }

// RateLimitError indicates the API rejected the request due to rate limiting
// (HTTP 429). RetryAfter is the server-directed wait, zero when the server
// gave none.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
	}
	return "rate limit exceeded"
}

func (e *RateLimitError) Retryable() bool { return true }

// RetryDelay returns the server-directed wait before the next attempt.
func (e *RateLimitError) RetryDelay() (time.Duration, bool) {
	return e.RetryAfter, e.RetryAfter > 0
}

// NotFoundError indicates a 404 whose message identified the missing
// resource. ID may be empty when the message named a type but no identifier.
type NotFoundError struct {
	ResourceType string
	ID           string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.ResourceType + " not found"
	}
	return fmt.Sprintf("%s not found: %s", e.ResourceType, e.ID)
}

func (e *NotFoundError) Retryable() bool { return false }

// ValidationError indicates a 422 validation failure. Field names the
// offending field when it could be determined.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string   { return "validation error: " + e.Message }
func (e *ValidationError) Retryable() bool { return false }

// ClassifyOptions carries optional request context recorded on classified
// errors.
type ClassifyOptions struct {
	// Header is the response header set, consulted for Retry-After on 429.
	Header http.Header
	// URL and Method identify the originating request.
	URL    string
	Method string
	// Timeout is the request time budget reported on 408/504 responses.
	// Zero means unknown; a 60s default is reported instead.
	Timeout time.Duration
}

// defaultClassifyTimeout is reported on 408/504 when the caller did not
// supply the configured request timeout.
const defaultClassifyTimeout = 60 * time.Second

// Classify converts an HTTP error response into a typed error. It is total:
// every (status, body) pair maps to exactly one error value, and it never
// fails or panics regardless of input.
func Classify(status int, body string, opts ClassifyOptions) error {
	parsed := ParseErrorBody(body)

	message, ok := parsed.bestMessage()
	if !ok {
		message = defaultMessageForStatus(status)
	}
	code, _ := parsed.errorCode()

	switch status {
	case http.StatusUnauthorized:
		// A structured unauthorized body is preserved as an API error so
		// callers can display message/details/ownership verbatim.
		if parsed.Kind == ErrorBodyUnauthorized {
			return apiError(status, message, code, &parsed, opts)
		}
		return &AuthError{Message: message}

	case http.StatusNotFound:
		if resource, id, ok := extractResourceInfo(message); ok {
			return &NotFoundError{ResourceType: resource, ID: id}
		}
		return apiError(status, message, code, &parsed, opts)

	case http.StatusUnprocessableEntity:
		field, _ := extractValidationField(message, body)
		return &ValidationError{Message: message, Field: field}

	case http.StatusTooManyRequests:
		retryAfter, ok := headerRetryAfter(opts.Header)
		if !ok {
			retryAfter, _ = extractRetryAfter(&parsed)
		}
		return &RateLimitError{RetryAfter: retryAfter}

	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultClassifyTimeout
		}
		return &TimeoutError{Timeout: timeout}

	default:
		return apiError(status, message, code, &parsed, opts)
	}
}

// ClassifyResponse drains the response body and classifies the response. The
// caller keeps ownership of the body and remains responsible for closing it.
func ClassifyResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}
	opts := ClassifyOptions{Header: resp.Header}
	if resp.Request != nil {
		if resp.Request.URL != nil {
			opts.URL = resp.Request.URL.String()
		}
		opts.Method = resp.Request.Method
	}
	return Classify(resp.StatusCode, string(body), opts)
}

func apiError(status int, message, code string, body *ErrorBody, opts ClassifyOptions) *APIError {
	return &APIError{
		StatusCode: status,
		Message:    message,
		Code:       code,
		Body:       body,
		URL:        opts.URL,
		Method:     opts.Method,
	}
}

func defaultMessageForStatus(status int) string {
	switch status {
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 408:
		return "Request Timeout"
	case 422:
		return "Unprocessable Entity"
	case 429:
		return "Too Many Requests"
	case 500:
		return "Internal Server Error"
	case 502:
		return "Bad Gateway"
	case 503:
		return "Service Unavailable"
	case 504:
		return "Gateway Timeout"
	default:
		return fmt.Sprintf("HTTP %d", status)
	}
}

// extractResourceInfo pulls the resource type and id out of a 404 message.
// Recognized patterns:
//
//	"Agent not found"
//	"Agent with ID agent-123 not found"
//	"Tool 'my_tool' not found"
//	"No source found with ID: source-456"
func extractResourceInfo(message string) (resource, id string, ok bool) {
	lower := strings.ToLower(message)

	if pos := strings.Index(lower, " not found"); pos >= 0 {
		prefix := message[:pos]

		if idStart := strings.Index(prefix, " with ID "); idStart >= 0 {
			id := strings.TrimSpace(prefix[idStart+len(" with ID "):])
			id = strings.Trim(id, `"`)
			id = strings.Trim(id, `'`)
			return strings.TrimSpace(prefix[:idStart]), id, true
		} else if quoteEnd := strings.LastIndex(prefix, "'"); quoteEnd >= 0 {
			if quoteStart := strings.LastIndex(prefix[:quoteEnd], "'"); quoteStart >= 0 {
				return strings.TrimSpace(prefix[:quoteStart]), prefix[quoteStart+1 : quoteEnd], true
			}
			// A lone quote matches neither quoted form; fall through to the
			// colon pattern below.
		} else {
			return strings.TrimSpace(prefix), "", true
		}
	}

	if strings.Contains(lower, " found ") && strings.Contains(lower, " with id:") {
		if colon := strings.Index(message, ":"); colon >= 0 {
			id := strings.TrimSpace(message[colon+1:])
			words := strings.Fields(message[:colon])
			for i, word := range words {
				if strings.ToLower(word) == "found" && i > 0 {
					return words[i-1], id, true
				}
			}
		}
	}

	return "", "", false
}

// extractValidationField pulls the offending field name from a 422 response:
// a JSON "field" key, else the first key of a "validation_errors" object,
// else a textual "Field '<name>'" fragment in the message. The raw body is
// probed directly so the field key is found whatever shape the body matched.
func extractValidationField(message, body string) (string, bool) {
	if gjson.Valid(body) {
		if f := gjson.Get(body, "field"); f.Type == gjson.String {
			return f.String(), true
		}
		if errs := gjson.Get(body, "validation_errors"); errs.IsObject() {
			first := ""
			errs.ForEach(func(key, _ gjson.Result) bool {
				first = key.String()
				return false
			})
			if first != "" {
				return first, true
			}
		}
	}

	if start := strings.Index(message, "Field '"); start >= 0 {
		rest := message[start+len("Field '"):]
		if end := strings.Index(rest, "'"); end >= 0 {
			return rest[:end], true
		}
	}
	return "", false
}

// extractRetryAfter reads a retry delay from JSON body keys retry_after,
// retryAfter or retry-after, expressed in integer seconds.
func extractRetryAfter(body *ErrorBody) (time.Duration, bool) {
	if body.Kind != ErrorBodyJSON {
		return 0, false
	}
	for _, key := range []string{"retry_after", "retryAfter", "retry-after"} {
		v := gjson.GetBytes(body.JSON, key)
		if !v.Exists() {
			continue
		}
		if v.Type == gjson.Number && v.Num >= 0 && v.Num == math.Trunc(v.Num) {
			return time.Duration(v.Num) * time.Second, true
		}
		return 0, false
	}
	return 0, false
}

// headerRetryAfter parses an integer-seconds Retry-After response header.
func headerRetryAfter(header http.Header) (time.Duration, bool) {
	if header == nil {
		return 0, false
	}
	raw := header.Get("Retry-After")
	if raw == "" {
		return 0, false
	}
	secs, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
