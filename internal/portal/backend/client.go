package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/publicsuffix"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultRetryMaxElapsed = 5 * time.Second
	maxErrorBody           = 1 << 16
)

var (
	// ErrAuthRequired indicates the backend rejected the forwarded admin session.
	ErrAuthRequired = errors.New("backend: authentication required")
	// ErrNotConfigured indicates no backend base URL was provided.
	ErrNotConfigured = errors.New("backend: base URL not configured")
)

// Error describes a non-2xx backend response.
type Error struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend: status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
}

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client speaks JSON to the citizen-portal API. Admin calls forward the
// backend session as an opaque cookie header ("credentials").
type Client struct {
	base            *url.URL
	http            HTTPClient
	forms           HTTPClient
	retryMaxElapsed time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport used for backend calls.
func WithHTTPClient(c HTTPClient) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithRetryMaxElapsed bounds how long idempotent GETs are retried. Zero disables retries.
func WithRetryMaxElapsed(d time.Duration) Option {
	return func(cl *Client) {
		cl.retryMaxElapsed = d
	}
}

// WithTimeout sets the timeout of the default transport. Ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if hc, ok := cl.http.(*http.Client); ok && d > 0 {
			hc.Timeout = d
		}
	}
}

// New constructs a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrNotConfigured
	}
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("backend: parse base URL: %w", err)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	c := &Client{
		base:            parsed,
		http:            &http.Client{Timeout: defaultTimeout},
		retryMaxElapsed: defaultRetryMaxElapsed,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.forms = withoutRedirects(c.http)
	return c, nil
}

// withoutRedirects copies an *http.Client so form posts observe the backend's
// redirect instead of following it. Other HTTPClient implementations are used as is.
func withoutRedirects(hc HTTPClient) HTTPClient {
	std, ok := hc.(*http.Client)
	if !ok {
		return hc
	}
	cp := *std
	cp.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &cp
}

// BaseURL returns the resolved backend root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// GetJSON fetches endpoint and decodes the body into out. Transport errors and
// 5xx responses are retried with exponential backoff.
func (c *Client) GetJSON(ctx context.Context, endpoint, credentials string, out any) error {
	op := func() error {
		req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil, credentials)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		if err := checkStatus(resp); err != nil {
			var be *Error
			if errors.As(err, &be) && be.Status >= http.StatusInternalServerError {
				return err
			}
			return backoff.Permanent(err)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("backend: decode %s: %w", endpoint, err))
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(c.newBackOff(), ctx))
}

// PostJSON encodes payload as the request body. The response body is discarded.
func (c *Client) PostJSON(ctx context.Context, endpoint, credentials string, payload any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("backend: encode payload: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, &buf, credentials)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return checkStatus(resp)
}

// Post issues a body-less POST and returns the response status code.
func (c *Client) Post(ctx context.Context, endpoint, credentials string) (int, error) {
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, nil, credentials)
	if err != nil {
		return 0, err
	}
	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return resp.StatusCode, nil
}

// Delete issues a DELETE for endpoint and discards the response body.
func (c *Client) Delete(ctx context.Context, endpoint, credentials string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, endpoint, nil, credentials)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return checkStatus(resp)
}

// Stream returns the raw response for endpoint. Callers must close the body.
func (c *Client) Stream(ctx context.Context, endpoint, credentials string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil, credentials)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// FormResult captures the outcome of a form submission.
type FormResult struct {
	StatusCode int
	// Location is set when the backend answered with a redirect.
	Location string
	// Credentials holds the cookies the backend issued that apply to the API base URL.
	Credentials string
}

// Redirected reports whether the backend answered with a 3xx redirect.
func (r FormResult) Redirected() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400 && r.Location != ""
}

// SubmitForm posts form-encoded values without following redirects and
// collects any session cookies issued in the response.
func (c *Client) SubmitForm(ctx context.Context, endpoint string, form url.Values) (FormResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()), "")
	if err != nil {
		return FormResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.doWith(c.forms, req)
	if err != nil {
		return FormResult{}, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return FormResult{}, fmt.Errorf("backend: cookie jar: %w", err)
	}
	jar.SetCookies(req.URL, resp.Cookies())

	result := FormResult{
		StatusCode:  resp.StatusCode,
		Credentials: EncodeCookies(jar.Cookies(c.base)),
	}
	if loc, err := resp.Location(); err == nil && loc != nil {
		result.Location = loc.String()
	}
	return result, nil
}

// EncodeCookies serialises cookies into a Cookie header value.
func EncodeCookies(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		parts = append(parts, (&http.Cookie{Name: c.Name, Value: c.Value}).String())
	}
	return strings.Join(parts, "; ")
}

func (c *Client) newBackOff() backoff.BackOff {
	if c.retryMaxElapsed <= 0 {
		return &backoff.StopBackOff{}
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.retryMaxElapsed
	return bo
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	return c.doWith(c.http, req)
}

func (c *Client) doWith(hc HTTPClient, req *http.Request) (*http.Response, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: %s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader, credentials string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	if credentials = strings.TrimSpace(credentials); credentials != "" {
		req.Header.Set("Cookie", credentials)
	}
	return req, nil
}

func (c *Client) resolve(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	ref := &url.URL{Path: strings.TrimPrefix(endpoint, "/")}
	return c.base.ResolveReference(ref).String()
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrAuthRequired
	default:
		return errorFromResponse(resp)
	}
}

func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error   string `json:"error"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	out := &Error{Status: resp.StatusCode}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		out.Code = strings.TrimSpace(payload.Code)
		out.Message = strings.TrimSpace(payload.Message)
		if out.Message == "" {
			out.Message = strings.TrimSpace(payload.Error)
		}
	}
	if out.Message == "" && len(body) > 0 {
		out.Message = strings.TrimSpace(string(body))
	}
	if out.Message == "" {
		out.Message = http.StatusText(resp.StatusCode)
	}
	return out
}
