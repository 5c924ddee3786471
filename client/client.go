// Package client talks to TheCube's HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxBody = 1 << 20

type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

type Option func(*Client)

// WithTimeout bounds every request. Without it requests wait as long as the
// transport allows.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a client for the device at baseURL, e.g. "http://thecube.local:55280".
// A bare host[:port] is treated as http.
func New(baseURL string, opts ...Option) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{},
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized device URL.
func (c *Client) BaseURL() string { return c.base }

// Request describes one call. RawQuery is appended verbatim so callers keep
// control of parameter order. Token, when set, is sent as a bearer header.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Body     any
	Token    string
}

// Response is a device reply. Body is always valid JSON: when the device did
// not answer with JSON it is {"status": <code>} and Fallback is set.
type Response struct {
	Status   int
	Body     json.RawMessage
	Fallback bool
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Do performs req. Only transport failures are returned as errors; use Check
// to turn {ok:false} replies into errors.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	u := c.base + req.Path
	if req.RawQuery != "" {
		u += "?" + req.RawQuery
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Debug("request failed", zap.String("method", method), zap.String("url", u), zap.Error(err))
		return nil, &TransportError{Op: method + " " + req.Path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, &TransportError{Op: "read " + req.Path, Err: err}
	}
	if len(raw) > maxBody {
		return nil, &TransportError{Op: "read " + req.Path, Err: ErrBodyTooLarge}
	}
	c.log.Debug("request",
		zap.String("method", method),
		zap.String("url", u),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
	)

	out := &Response{Status: resp.StatusCode, Body: raw}
	if len(bytes.TrimSpace(raw)) == 0 || !json.Valid(raw) {
		out.Body = json.RawMessage(`{"status":` + strconv.Itoa(resp.StatusCode) + `}`)
		out.Fallback = true
	}
	return out, nil
}

// GetJSON fetches path and decodes a successful reply into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.call(ctx, Request{Method: http.MethodGet, Path: path}, out)
}

// PostJSON posts in as JSON and decodes a successful reply into out, which may be nil.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, Request{Method: http.MethodPost, Path: path, Body: in}, out)
}

func (c *Client) call(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := Check(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.Path, err)
	}
	return nil
}
