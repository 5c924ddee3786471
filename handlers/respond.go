package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorJSON answers in the mock router's {ok:false, error} shape.
func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// authJSON answers in CubeAuth's {success, message} shape.
func authJSON(w http.ResponseWriter, status int, success bool, msg string) {
	writeJSON(w, status, map[string]any{"success": success, "message": msg})
}

func ok(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Unknown is the catch-all for paths the device does not serve.
func Unknown(w http.ResponseWriter, r *http.Request) {
	errorJSON(w, http.StatusInternalServerError, "mock: unknown endpoint")
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}

// params collects manifest endpoint arguments: the query string for GET,
// and the JSON object body for anything else. Body values win over query values.
func params(r *http.Request) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	if r.Method == http.MethodGet {
		return out, nil
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") && r.ContentLength == 0 {
		return out, nil
	}
	var body map[string]any
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}
	for k, v := range body {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
			out[k] = ""
		default:
			b, _ := json.Marshal(t)
			out[k] = strings.Trim(string(b), `"`)
		}
	}
	return out, nil
}
