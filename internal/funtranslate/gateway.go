package funtranslate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultCallTimeout bounds one vendor round trip when no timeout is configured.
const DefaultCallTimeout = 15 * time.Second

// maxResponseBytes caps how much of a vendor response body is read.
const maxResponseBytes = 1 << 20

// FailureKind classifies why a pipeline stage produced no text.
type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureTransport FailureKind = "transport"
	FailureStatus    FailureKind = "status"
	FailureMalformed FailureKind = "malformed"
	FailureEmpty     FailureKind = "empty"
)

// Failure is returned by the gateway and the vendor clients for every failed call.
type Failure struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	if f == nil {
		return "<nil>"
	}
	switch {
	case f.StatusCode != 0 && f.Err != nil:
		return fmt.Sprintf("%s failure (status %d): %v", f.Kind, f.StatusCode, f.Err)
	case f.StatusCode != 0:
		return fmt.Sprintf("%s failure (status %d)", f.Kind, f.StatusCode)
	case f.Err != nil:
		return fmt.Sprintf("%s failure: %v", f.Kind, f.Err)
	default:
		return fmt.Sprintf("%s failure", f.Kind)
	}
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

// KindOf extracts the failure kind from err. Errors that are not a *Failure count as transport failures.
func KindOf(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var failure *Failure
	if errors.As(err, &failure) && failure.Kind != FailureNone {
		return failure.Kind
	}
	return FailureTransport
}

func transportFailure(err error) *Failure {
	return &Failure{Kind: FailureTransport, Err: err}
}

func malformedFailure(format string, args ...any) *Failure {
	return &Failure{Kind: FailureMalformed, Err: fmt.Errorf(format, args...)}
}

// Gateway posts a JSON body to an endpoint and returns the raw response body.
type Gateway interface {
	Post(ctx context.Context, endpoint string, body []byte) ([]byte, error)
}

// HTTPGateway is a stateless Gateway backed by one shared http.Client.
type HTTPGateway struct {
	client *http.Client
}

// NewHTTPGateway builds a gateway whose calls are bounded by timeout.
func NewHTTPGateway(timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        32,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &HTTPGateway{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// NewHTTPGatewayWithClient wraps an existing client. A nil client falls back to the defaults.
func NewHTTPGatewayWithClient(client *http.Client) *HTTPGateway {
	if client == nil {
		return NewHTTPGateway(DefaultCallTimeout)
	}
	return &HTTPGateway{client: client}
}

func (g *HTTPGateway) Post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	if g == nil || g.client == nil {
		return nil, transportFailure(fmt.Errorf("gateway is not initialized"))
	}

	parsed, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, transportFailure(fmt.Errorf("parse endpoint: %w", redactURLError(err)))
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, transportFailure(fmt.Errorf("endpoint must be an absolute http(s) URL"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, parsed.String(), bytes.NewReader(body))
	if err != nil {
		return nil, transportFailure(fmt.Errorf("build request: %w", redactURLError(err)))
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, transportFailure(fmt.Errorf("send request: %w", redactURLError(err)))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportFailure(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Failure{
			Kind:       FailureStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", snippet(respBody)),
		}
	}
	return respBody, nil
}

// redactURLError rewrites the URL carried by a *url.Error so query values such as API keys never reach logs.
func redactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	return &url.Error{Op: urlErr.Op, URL: redactURL(urlErr.URL), Err: urlErr.Err}
}

func redactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			return raw[:i] + "?REDACTED"
		}
		return raw
	}
	if parsed.RawQuery == "" {
		return raw
	}
	query := parsed.Query()
	for key := range query {
		query.Set(key, "REDACTED")
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

const maxSnippetRunes = 200

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if utf8.RuneCountInString(text) > maxSnippetRunes {
		text = string([]rune(text)[:maxSnippetRunes]) + "..."
	}
	if text == "" {
		return "empty response body"
	}
	return text
}
