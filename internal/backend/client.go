// Package backend is the HTTP transport to the presenter backend: login,
// session lookup, view configuration and the batched state endpoint.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roach88/presenter/internal/ir"
)

// Endpoint paths, relative to the base URL.
const (
	PathLogin  = "/api/auth/login"
	PathMe     = "/api/auth/me"
	PathConfig = "/api/config"
	PathView   = "/api/view"

	// HeaderWireVersion carries ir.WireVersion on every request.
	HeaderWireVersion = "X-Presenter-Wire-Version"
)

const defaultTimeout = 10 * time.Second

// TokenSource supplies the session token appended to every request.
type TokenSource interface {
	Token() string
}

// Client talks to the presenter backend over HTTP. Every request carries
// the session token from its TokenSource. Safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
	timeout time.Duration
}

// New creates a client for baseURL. tokens may be nil for anonymous use.
func New(baseURL string, tokens TokenSource) *Client {
	return NewWithClient(baseURL, &http.Client{}, tokens)
}

// NewWithClient is like New but sends requests through client.
func NewWithClient(baseURL string, client *http.Client, tokens TokenSource) *Client {
	if client == nil {
		client = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		tokens:  tokens,
		timeout: defaultTimeout,
	}
}

// WithTimeout returns a copy of c whose requests time out after timeout.
// Zero disables the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if c == nil {
		return nil
	}
	clone := *c
	clone.timeout = timeout
	return &clone
}

// RequestError is a non-2xx reply from the backend.
type RequestError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	code := strings.TrimSpace(e.Code)
	message := strings.TrimSpace(e.Message)
	switch {
	case code != "" && message != "":
		return fmt.Sprintf("%s: %s", code, message)
	case message != "" && e.StatusCode > 0:
		return fmt.Sprintf("http %d: %s", e.StatusCode, message)
	case code != "":
		return code
	case e.StatusCode > 0:
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return "http error"
}

// Retryable reports whether the same request may succeed later.
func (e *RequestError) Retryable() bool {
	if e == nil {
		return false
	}
	if e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusRequestTimeout {
		return true
	}
	return e.StatusCode >= 500
}

// IsUnauthorized reports whether err is a 401 reply, which ends the
// session rather than failing a single request.
func IsUnauthorized(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.StatusCode == http.StatusUnauthorized
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type loginBody struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, req ir.LoginRequest) (*ir.LoginResponse, error) {
	var resp ir.LoginResponse
	if err := c.do(ctx, http.MethodPost, PathLogin, loginBody{Name: req.Username, Password: req.Password}, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &resp, nil
}

// Me returns the id of the user owning the current token.
func (c *Client) Me(ctx context.Context) (int64, error) {
	var id int64
	if err := c.do(ctx, http.MethodPost, PathMe, struct{}{}, &id); err != nil {
		return 0, fmt.Errorf("me: %w", err)
	}
	return id, nil
}

// LoadViewConfig fetches every view configuration keyed by view name.
func (c *Client) LoadViewConfig(ctx context.Context) (map[string]*ir.ViewConfig, error) {
	var cfg map[string]*ir.ViewConfig
	if err := c.do(ctx, http.MethodGet, PathConfig, nil, &cfg); err != nil {
		return nil, fmt.Errorf("load view config: %w", err)
	}
	if cfg == nil {
		cfg = map[string]*ir.ViewConfig{}
	}
	for name, vc := range cfg {
		if vc != nil && vc.View == "" {
			vc.View = name
		}
	}
	return cfg, nil
}

// RequestState sends one synchronization batch.
func (c *Client) RequestState(ctx context.Context, req *ir.StateRequest) (*ir.StateResponse, error) {
	var resp ir.StateResponse
	if err := c.do(ctx, http.MethodPost, PathView, req, &resp); err != nil {
		return nil, fmt.Errorf("request state: %w", err)
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := c.request(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) request(ctx context.Context, method, path string, body any) ([]byte, error) {
	u := c.baseURL + path
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			u += "?" + url.Values{"token": {token}}.Encode()
		}
	}

	reqCtx := ctx
	if c.timeout > 0 {
		if deadline, ok := ctx.Deadline(); !ok || time.Until(deadline) > c.timeout {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
	}

	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = buf
	}
	req, err := http.NewRequestWithContext(reqCtx, method, u, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "presenter/"+ir.EngineVersion)
	req.Header.Set(HeaderWireVersion, ir.WireVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, newRequestError(resp.StatusCode, payload)
	}
	return payload, nil
}

func newRequestError(status int, payload []byte) *RequestError {
	var er errorResponse
	if err := json.Unmarshal(payload, &er); err == nil {
		message := er.Message
		if message == "" {
			message = er.Error
		}
		if er.Code != "" || message != "" {
			code := er.Code
			if code == "" {
				code = fmt.Sprintf("HTTP_%d", status)
			}
			return &RequestError{StatusCode: status, Code: code, Message: message}
		}
	}
	return &RequestError{
		StatusCode: status,
		Code:       fmt.Sprintf("HTTP_%d", status),
		Message:    strings.TrimSpace(string(payload)),
	}
}
