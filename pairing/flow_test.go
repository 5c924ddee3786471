package pairing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"cube-panel/client"
	"cube-panel/errs"

	"github.com/stretchr/testify/require"
)

type memStore struct {
	token   string
	expires time.Time
	saves   int
}

func (m *memStore) Load() (string, error) { return m.token, nil }

func (m *memStore) Save(token string, expires time.Time) error {
	m.token, m.expires = token, expires
	m.saves++
	return nil
}

func (m *memStore) Clear() error {
	m.token = ""
	return nil
}

// fakeDevice issues code 424242 and accepts it once per request.
func fakeDevice(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /CubeAuth-initCode", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("client_id") == "" {
			w.Write([]byte(`{"success":false}`))
			return
		}
		if r.URL.Query().Get("return_code") == "1" {
			w.Write([]byte(`{"success":true,"initial_code":"424242"}`))
			return
		}
		w.Write([]byte(`{"success":true,"message":"Initial code shown on device"}`))
	})
	mux.HandleFunc("GET /CubeAuth-authHeader", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("client_id") != "web-1":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"message":"Client id not found."}`))
		case q.Get("initial_code") != "424242":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"message":"Initial code mismatch."}`))
		default:
			w.Write([]byte(`{"success":true,"auth_code":"tok-new","message":"Authorized"}`))
		}
	})
	mux.HandleFunc("GET /broken/CubeAuth-authHeader", func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFlow_InlineCodeThenAuthenticate(t *testing.T) {
	t.Parallel()
	srv := fakeDevice(t)
	store := &memStore{}
	f, err := NewFlow(client.New(srv.URL), store, "web-1", nil)
	require.NoError(t, err)
	require.Equal(t, Unauthenticated, f.State())

	code, err := f.RequestInitialCode(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, "424242", code)
	require.Equal(t, "424242", f.Session.PendingInitialCode)
	require.Equal(t, CodeRequested, f.State())

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)
	f.now = func() time.Time { return now }
	require.NoError(t, f.Authenticate(context.Background(), ""))
	require.Equal(t, Authenticated, f.State())
	require.Empty(t, f.Session.PendingInitialCode)
	require.Equal(t, "tok-new", f.Token())
	require.Equal(t, "tok-new", store.token)
	require.Equal(t, now.Add(365*24*time.Hour), store.expires)
}

func TestFlow_DeviceDisplayedCode(t *testing.T) {
	t.Parallel()
	srv := fakeDevice(t)
	f, err := NewFlow(client.New(srv.URL), &memStore{}, "web-1", nil)
	require.NoError(t, err)

	code, err := f.RequestInitialCode(context.Background(), false)
	require.NoError(t, err)
	require.Empty(t, code)
	require.Equal(t, CodeRequested, f.State())

	require.ErrorIs(t, f.Authenticate(context.Background(), ""), errs.ErrNoCode)
	require.NoError(t, f.Authenticate(context.Background(), "424242"))
	require.Equal(t, Authenticated, f.State())
}

func TestFlow_NewRequestDiscardsPendingCode(t *testing.T) {
	t.Parallel()
	srv := fakeDevice(t)
	f, err := NewFlow(client.New(srv.URL), &memStore{}, "web-1", nil)
	require.NoError(t, err)

	_, err = f.RequestInitialCode(context.Background(), true)
	require.NoError(t, err)
	_, err = f.RequestInitialCode(context.Background(), false)
	require.NoError(t, err)
	require.Empty(t, f.Session.PendingInitialCode)
}

func TestFlow_AuthenticateFailureKeepsStoredToken(t *testing.T) {
	t.Parallel()
	srv := fakeDevice(t)
	store := &memStore{token: "tok-old"}
	f, err := NewFlow(client.New(srv.URL), store, "web-1", nil)
	require.NoError(t, err)
	require.Equal(t, Authenticated, f.State())

	err = f.Authenticate(context.Background(), "000000")
	var appErr *client.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "Initial code mismatch.", appErr.Message)
	require.Equal(t, "tok-old", f.Token())
	require.Equal(t, "tok-old", store.token)
	require.Zero(t, store.saves)

	// The flow can be retried without starting over.
	require.NoError(t, f.Authenticate(context.Background(), "424242"))
	require.Equal(t, "tok-new", store.token)
}

func TestFlow_AuthenticateFailureWithoutMessage(t *testing.T) {
	t.Parallel()
	srv := fakeDevice(t)
	f, err := NewFlow(client.New(srv.URL+"/broken"), &memStore{}, "web-1", nil)
	require.NoError(t, err)

	err = f.Authenticate(context.Background(), "424242")
	var appErr *client.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, AuthFailed, appErr.Message)
	require.Equal(t, Unauthenticated, f.State())
}

func TestFlow_RequestFailures(t *testing.T) {
	t.Parallel()
	srv := fakeDevice(t)
	f, err := NewFlow(client.New(srv.URL), &memStore{}, "", nil)
	require.NoError(t, err)

	_, err = f.RequestInitialCode(context.Background(), true)
	var appErr *client.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, client.UnknownError, appErr.Message)
	require.Equal(t, Unauthenticated, f.State())

	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	f, err = NewFlow(client.New(dead.URL), &memStore{}, "web-1", nil)
	require.NoError(t, err)
	_, err = f.RequestInitialCode(context.Background(), true)
	var te *client.TransportError
	require.ErrorAs(t, err, &te)
}

func TestFlow_LogoutClearsCookie(t *testing.T) {
	t.Parallel()
	srv := fakeDevice(t)
	cf := &CookieFile{Path: filepath.Join(t.TempDir(), "cookie.json")}
	f, err := NewFlow(client.New(srv.URL), cf, "web-1", nil)
	require.NoError(t, err)

	_, err = f.RequestInitialCode(context.Background(), true)
	require.NoError(t, err)
	require.NoError(t, f.Authenticate(context.Background(), ""))

	again, err := NewFlow(client.New(srv.URL), cf, "web-1", nil)
	require.NoError(t, err)
	require.Equal(t, "tok-new", again.Token())

	require.NoError(t, again.Logout())
	require.Equal(t, Unauthenticated, again.State())
	tok, err := cf.Load()
	require.NoError(t, err)
	require.Empty(t, tok)
}
