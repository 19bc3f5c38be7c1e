package contentstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Transport performs one read against the content API and decodes the JSON
// response body into out.
type Transport interface {
	Get(ctx context.Context, path string, out any) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, path string, out any) error

func (f TransportFunc) Get(ctx context.Context, path string, out any) error {
	return f(ctx, path, out)
}

// HTTPOptions configures an HTTPTransport.
type HTTPOptions struct {
	Client  *http.Client      // Client is the HTTP client. Default has a cookie jar and a 30s timeout.
	Headers map[string]string // Headers are sent with every request, e.g. an opaque credential.
}

// HTTPTransport reads JSON from an API bound to a base URL. Cookies set by the
// server are kept in the client's jar and sent back on every request.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
	headers http.Header
}

// NewHTTPTransport creates a transport for the API rooted at baseURL.
func NewHTTPTransport(baseURL string, opts HTTPOptions) (*HTTPTransport, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	if opts.Client != nil {
		c := *opts.Client
		client = &c
	}
	if client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		client.Jar = jar
	}

	headers := http.Header{}
	for k, v := range opts.Headers {
		headers.Set(k, v)
	}

	return &HTTPTransport{
		baseURL: strings.TrimSuffix(parsed.String(), "/"),
		client:  client,
		headers: headers,
	}, nil
}

// Get issues a GET for path relative to the base URL.
func (t *HTTPTransport) Get(ctx context.Context, path string, out any) error {
	target := t.baseURL + "/" + strings.TrimPrefix(path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, values := range t.headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode, URL: target}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrDecode, target, err)
	}

	return nil
}
