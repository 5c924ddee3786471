package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cube-panel/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestNew_NormalizesBaseAndHasNoTimeout(t *testing.T) {
	t.Parallel()
	c := New("thecube.local:55280/")
	require.Equal(t, "http://thecube.local:55280", c.BaseURL())
	require.Zero(t, c.http.Timeout)

	c = New("https://cube", WithTimeout(3*time.Second))
	require.Equal(t, "https://cube", c.BaseURL())
	require.Equal(t, 3*time.Second, c.http.Timeout)
}

func TestDo_NonJSONFallsBackToStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Do(context.Background(), Request{Path: "/x"})
	require.NoError(t, err)
	require.True(t, resp.Fallback)
	require.Equal(t, http.StatusBadGateway, resp.Status)
	require.JSONEq(t, `{"status":502}`, string(resp.Body))

	var appErr *AppError
	require.ErrorAs(t, Check(resp), &appErr)
	require.Equal(t, UnknownError, appErr.Message)
}

func TestDo_EmptyBodyFallsBack(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Do(context.Background(), Request{Path: "/x"})
	require.NoError(t, err)
	require.True(t, resp.Fallback)
	require.JSONEq(t, `{"status":204}`, string(resp.Body))
	require.NoError(t, Check(resp))
}

func TestDo_TransportError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Do(context.Background(), Request{Path: "/api/status"})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Contains(t, te.Op, "/api/status")
}

func TestDo_OversizedBodyIsTransportError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pad":"` + strings.Repeat("x", maxBody) + `"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Do(context.Background(), Request{Path: "/getEndpoints"})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.ErrorIs(t, err, ErrBodyTooLarge)

	var appErr *AppError
	require.False(t, errors.As(err, &appErr))
}

func TestDo_BodyAtLimitIsKept(t *testing.T) {
	t.Parallel()
	body := `{"pad":"` + strings.Repeat("x", maxBody-10) + `"}`
	require.Len(t, body, maxBody)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Do(context.Background(), Request{Path: "/x"})
	require.NoError(t, err)
	require.False(t, resp.Fallback)
	require.Len(t, resp.Body, maxBody)
}

func TestDo_HeadersAndBody(t *testing.T) {
	t.Parallel()
	var gotAuth, gotType, gotQuery string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotQuery = r.URL.RawQuery
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()
	c := New(srv.URL)

	_, err := c.Do(context.Background(), Request{Path: "/a", RawQuery: "z=1&a=2"})
	require.NoError(t, err)
	require.Empty(t, gotAuth)
	require.Empty(t, gotType)
	require.Equal(t, "z=1&a=2", gotQuery)

	_, err = c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/b", Body: map[string]string{"k": "v"}, Token: "tok"})
	require.NoError(t, err)
	require.Equal(t, "Bearer tok", gotAuth)
	require.Equal(t, "application/json", gotType)
	require.JSONEq(t, `{"k":"v"}`, string(gotBody))
}

func TestCheck(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		status int
		body   string
		msg    string
	}{
		{"ok true", 200, `{"ok":true}`, ""},
		{"array", 200, `["a","b"]`, ""},
		{"ok false with error", 500, `{"ok":false,"error":"mock: unknown endpoint"}`, "mock: unknown endpoint"},
		{"success false with message", 401, `{"success":false,"message":"Initial code mismatch."}`, "Initial code mismatch."},
		{"success false bare", 200, `{"success":false}`, UnknownError},
		{"error status without flags", 404, `{"detail":"x"}`, UnknownError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(&Response{Status: tc.status, Body: json.RawMessage(tc.body)})
			if tc.msg == "" {
				require.NoError(t, err)
				return
			}
			var appErr *AppError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, tc.msg, appErr.Message)
			require.Equal(t, tc.status, appErr.Status)
		})
	}
}

func TestTypedCalls(t *testing.T) {
	t.Parallel()
	var mode models.ModeRequest
	var trigger models.TriggerRequest
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"online":true,"host":"thecube.local","uptime":120,"memTotal":3996}`))
	})
	mux.HandleFunc("GET /api/logs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lines":["[10:00:00] a","[10:00:01] b"]}`))
	})
	mux.HandleFunc("GET /api/scanNetworks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["CubeNet","VanLab","Workshop","CoffeeBar"]`))
	})
	mux.HandleFunc("POST /api/mode", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&mode)
		w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("POST /trigger", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&trigger)
		w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("GET /api/personality", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"playfulness":6,"cheekiness":5,"seriousness":5,"empathy":7,"responsiveness":7,"mood":"Balanced"}`))
	})
	mux.HandleFunc("POST /api/personality", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error":"value must be between 0 and 10"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	st, err := c.Status(ctx)
	require.NoError(t, err)
	require.True(t, st.Online)
	require.Equal(t, int64(120), st.Uptime)

	lines, err := c.Logs(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	ssids, err := c.ScanNetworks(ctx)
	require.NoError(t, err)
	require.Len(t, ssids, 4)

	require.NoError(t, c.SetMode(ctx, true))
	require.True(t, mode.Cloud)

	require.NoError(t, c.Trigger(ctx, "wave"))
	require.Equal(t, "wave", trigger.Event)

	p, mood, err := c.Personality(ctx)
	require.NoError(t, err)
	require.Equal(t, 7, p.Empathy)
	require.Equal(t, "Balanced", mood)

	err = c.SetPersonality(ctx, "empathy", 42)
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "value must be between 0 and 10", appErr.Error())

	err = c.Restart(ctx)
	require.ErrorAs(t, err, &appErr)
	require.False(t, errors.As(err, new(*TransportError)))
}

func TestStreamEvents(t *testing.T) {
	t.Parallel()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(models.WSMessage{Type: "welcome"})
		conn.WriteJSON(models.WSMessage{Type: models.WSTypeLogLine, Payload: "[10:00:00] hi"})
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	var got []string
	err := New(srv.URL).StreamEvents(context.Background(), func(m models.WSMessage) {
		got = append(got, m.Type)
	})
	require.NoError(t, err)
	require.Equal(t, []string{"welcome", models.WSTypeLogLine}, got)
}

func TestStreamEvents_StopsOnCancel(t *testing.T) {
	t.Parallel()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(models.WSMessage{Type: "welcome"})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	err := New(srv.URL).StreamEvents(ctx, func(m models.WSMessage) { cancel() })
	require.NoError(t, err)
}
