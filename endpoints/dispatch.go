package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"cube-panel/client"
	"cube-panel/models"
)

// TokenSource yields the bearer token currently held, or "".
type TokenSource interface {
	Token() string
}

// Dispatcher submits forms to the device.
type Dispatcher struct {
	client *client.Client
	tokens TokenSource
}

func NewDispatcher(c *client.Client, tokens TokenSource) *Dispatcher {
	return &Dispatcher{client: c, tokens: tokens}
}

// Fetch downloads and parses the device's manifest.
func (d *Dispatcher) Fetch(ctx context.Context) (models.Manifest, error) {
	resp, err := d.client.Do(ctx, client.Request{Method: http.MethodGet, Path: "/getEndpoints"})
	if err != nil {
		return models.Manifest{}, err
	}
	if err := client.Check(resp); err != nil {
		return models.Manifest{}, err
	}
	if resp.Fallback {
		return models.Manifest{}, &client.AppError{Status: resp.Status, Message: client.UnknownError}
	}
	return ParseManifest(resp.Body)
}

// Submit sends f with values keyed by field name. GET endpoints get a query
// string, anything else a JSON object body, both in field order. The bearer
// token is attached only to private endpoints, and only when one is held.
// The reply is returned whatever its status; transport failures are errors.
func (d *Dispatcher) Submit(ctx context.Context, f Form, values map[string]string) (*client.Response, error) {
	desc := f.Endpoint
	req := client.Request{
		Method: strings.ToUpper(desc.Method),
		Path:   "/" + desc.Category + "-" + desc.Name,
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if !desc.Public && d.tokens != nil {
		req.Token = d.tokens.Token()
	}

	if req.Method == http.MethodGet {
		req.RawQuery = encodeQuery(f.Fields, values)
	} else {
		body, err := encodeBody(f.Fields, values)
		if err != nil {
			return nil, err
		}
		req.Body = body
	}
	return d.client.Do(ctx, req)
}

func encodeQuery(fields []Field, values map[string]string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, url.QueryEscape(f.Name)+"="+url.QueryEscape(values[f.Name]))
	}
	return strings.Join(parts, "&")
}

// encodeBody writes {field: value} by hand since maps lose field order.
func encodeBody(fields []Field, values map[string]string) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(values[f.Name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return json.RawMessage(buf.Bytes()), nil
}
