package endpoints

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"cube-panel/client"
	"cube-panel/models"

	"github.com/stretchr/testify/require"
)

const sampleManifest = `{
  "System": [{"name":"status","params":[],"public":true,"method":"get"}],
  "CubeAuth": [
    {"name":"initCode","params":["client_id"],"public":true},
    {"name":"authHeader","params":["client_id","initial_code"],"public":true,"method":"GET"}
  ],
  "Reminders": [{"name":"add","params":["text","when"],"public":false,"method":"POST"}]
}`

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestParseManifest_KeepsOrderAndNormalizes(t *testing.T) {
	t.Parallel()
	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)
	require.Len(t, m.Categories, 3)
	require.Equal(t, "System", m.Categories[0].Name)
	require.Equal(t, "CubeAuth", m.Categories[1].Name)
	require.Equal(t, "Reminders", m.Categories[2].Name)

	status := m.Categories[0].Endpoints[0]
	require.Equal(t, "System", status.Category)
	require.Equal(t, "GET", status.Method)
	require.NotNil(t, status.Params)

	init, ok := m.Lookup("CubeAuth", "initCode")
	require.True(t, ok)
	require.Equal(t, "GET", init.Method)

	add, ok := m.LookupPath("/Reminders-add")
	require.True(t, ok)
	require.Equal(t, "POST", add.Method)
	require.False(t, add.Public)
}

func TestParseManifest_Errors(t *testing.T) {
	t.Parallel()
	for _, in := range []string{``, `[]`, `{"A": 3}`, `{"A": [`} {
		_, err := ParseManifest([]byte(in))
		require.Error(t, err, in)
	}

	m, err := ParseManifest([]byte(`{}`))
	require.NoError(t, err)
	require.Empty(t, m.Categories)
}

func TestRender_SingleParamlessEndpoint(t *testing.T) {
	t.Parallel()
	m, err := ParseManifest([]byte(`{"System":[{"name":"status","params":[],"public":true,"method":"GET"}]}`))
	require.NoError(t, err)

	sections := Render(m)
	require.Len(t, sections, 1)
	require.Equal(t, "System", sections[0].Heading)
	require.Len(t, sections[0].Forms, 1)
	require.Len(t, sections[0].Links, 1)
	require.Empty(t, sections[0].Forms[0].Fields)
	require.Equal(t, Link{Href: "/System-status", Label: "System-status, params: , public: true"}, sections[0].Links[0])
}

func TestRender_FieldsAndLabel(t *testing.T) {
	t.Parallel()
	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)

	sections := Render(m)
	auth := sections[1]
	require.Equal(t, []Field{{Name: "client_id"}, {Name: "initial_code"}}, auth.Forms[1].Fields)
	require.Equal(t, "CubeAuth-authHeader, params: client_id,initial_code, public: true", auth.Links[1].Label)
	require.Equal(t, "Reminders-add, params: text,when, public: false", sections[2].Links[0].Label)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sections))
	out := buf.String()
	require.Contains(t, out, "System\n")
	require.Contains(t, out, "POST   Reminders-add, params: text,when, public: false")
	require.Contains(t, out, "fields: client_id initial_code")
}

type captured struct {
	method, path, query, auth, ctype string
	body                             []byte
}

func captureServer(t *testing.T, reply string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.auth = r.Header.Get("Authorization")
		got.ctype = r.Header.Get("Content-Type")
		got.body, _ = io.ReadAll(r.Body)
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestSubmit_PublicGetHasNoAuthorization(t *testing.T) {
	t.Parallel()
	srv, got := captureServer(t, `{"online":true}`)
	m, _ := ParseManifest([]byte(`{"System":[{"name":"status","params":[],"public":true,"method":"GET"}]}`))
	form := Render(m)[0].Forms[0]

	d := NewDispatcher(client.New(srv.URL), staticToken("secret"))
	resp, err := d.Submit(context.Background(), form, nil)
	require.NoError(t, err)
	require.Equal(t, http.MethodGet, got.method)
	require.Equal(t, "/System-status", got.path)
	require.Empty(t, got.query)
	require.Empty(t, got.auth)
	require.JSONEq(t, `{"online":true}`, string(resp.Body))
}

func TestSubmit_GetQueryInFieldOrder(t *testing.T) {
	t.Parallel()
	srv, got := captureServer(t, `{"success":true}`)
	form := FormFor(models.EndpointDescriptor{
		Category: "CubeAuth", Name: "authHeader", Params: []string{"client_id", "initial_code"}, Public: true, Method: "GET",
	})

	d := NewDispatcher(client.New(srv.URL), nil)
	_, err := d.Submit(context.Background(), form, map[string]string{"initial_code": "123 456", "client_id": "web"})
	require.NoError(t, err)
	require.Equal(t, "client_id=web&initial_code=123+456", got.query)
}

func TestSubmit_PrivateBearerOnlyWhenHeld(t *testing.T) {
	t.Parallel()
	srv, got := captureServer(t, `{"ok":true}`)
	form := FormFor(models.EndpointDescriptor{
		Category: "Reminders", Name: "add", Params: []string{"text", "when"}, Public: false, Method: "POST",
	})

	d := NewDispatcher(client.New(srv.URL), staticToken("tok-1"))
	_, err := d.Submit(context.Background(), form, map[string]string{"text": "tea", "when": "in 5m"})
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, got.method)
	require.Equal(t, "Bearer tok-1", got.auth)
	require.Equal(t, "application/json", got.ctype)
	require.Equal(t, `{"text":"tea","when":"in 5m"}`, string(got.body))

	d = NewDispatcher(client.New(srv.URL), staticToken(""))
	_, err = d.Submit(context.Background(), form, map[string]string{"text": "tea"})
	require.NoError(t, err)
	require.Empty(t, got.auth)
	require.Equal(t, `{"text":"tea","when":""}`, string(got.body))
}

func TestSubmit_NonJSONReplyBecomesStatus(t *testing.T) {
	t.Parallel()
	srv, _ := captureServer(t, "Internal Server Error")
	form := FormFor(models.EndpointDescriptor{Category: "System", Name: "restart", Public: true, Method: "POST"})

	resp, err := NewDispatcher(client.New(srv.URL), nil).Submit(context.Background(), form, nil)
	require.NoError(t, err)
	require.True(t, resp.Fallback)
	require.JSONEq(t, `{"status":200}`, string(resp.Body))
}

func TestSubmit_TransportErrorSurfaces(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	form := FormFor(models.EndpointDescriptor{Category: "System", Name: "status", Public: true})
	_, err := NewDispatcher(client.New(url), nil).Submit(context.Background(), form, nil)
	var te *client.TransportError
	require.ErrorAs(t, err, &te)
}

func TestFetch(t *testing.T) {
	t.Parallel()
	srv, got := captureServer(t, sampleManifest)
	m, err := NewDispatcher(client.New(srv.URL), nil).Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/getEndpoints", got.path)
	require.Len(t, m.Categories, 3)

	bad, _ := captureServer(t, "not json")
	_, err = NewDispatcher(client.New(bad.URL), nil).Fetch(context.Background())
	var appErr *client.AppError
	require.ErrorAs(t, err, &appErr)
}
