// Package pairing exchanges a device-issued initial code for a long-lived
// bearer token and keeps that token between runs.
package pairing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"cube-panel/client"
	"cube-panel/errs"
	"cube-panel/models"

	"go.uber.org/zap"
)

// AuthFailed is reported when the device rejects a code without saying why.
const AuthFailed = "authentication failed"

type State int

const (
	Unauthenticated State = iota
	CodeRequested
	Authenticated
)

func (s State) String() string {
	switch s {
	case CodeRequested:
		return "code requested"
	case Authenticated:
		return "authenticated"
	}
	return "unauthenticated"
}

// Session is the pairing state of one client id.
type Session struct {
	ClientID           string
	PendingInitialCode string
	Token              string
}

// Flow drives pairing for one session. It is not safe for concurrent use.
type Flow struct {
	client    *client.Client
	store     TokenStore
	log       *zap.Logger
	now       func() time.Time
	requested bool

	Session Session
}

// NewFlow starts a session for clientID, picking up a previously stored token.
func NewFlow(c *client.Client, store TokenStore, clientID string, log *zap.Logger) (*Flow, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Flow{
		client:  c,
		store:   store,
		log:     log,
		now:     time.Now,
		Session: Session{ClientID: clientID},
	}
	tok, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	f.Session.Token = tok
	return f, nil
}

func (f *Flow) State() State {
	switch {
	case f.Session.Token != "":
		return Authenticated
	case f.requested || f.Session.PendingInitialCode != "":
		return CodeRequested
	}
	return Unauthenticated
}

// Token returns the held bearer token, or "".
func (f *Flow) Token() string {
	return f.Session.Token
}

// RequestInitialCode asks the device for a new initial code, discarding any
// pending one. When wantReturnedCode is set and the device returns the code,
// it becomes pending and is returned; otherwise the device shows it and ""
// is returned.
func (f *Flow) RequestInitialCode(ctx context.Context, wantReturnedCode bool) (string, error) {
	f.Session.PendingInitialCode = ""

	q := "client_id=" + url.QueryEscape(f.Session.ClientID)
	if wantReturnedCode {
		q += "&return_code=1"
	}
	resp, err := f.client.Do(ctx, client.Request{Method: http.MethodGet, Path: "/CubeAuth-initCode", RawQuery: q})
	if err != nil {
		return "", err
	}

	var out models.InitCodeResponse
	_ = resp.Decode(&out)
	if !out.Success {
		return "", appError(resp, out.Message, client.UnknownError)
	}

	f.requested = true
	f.Session.PendingInitialCode = out.InitialCode
	f.log.Debug("initial code requested", zap.String("client_id", f.Session.ClientID), zap.Bool("inline", out.InitialCode != ""))
	return out.InitialCode, nil
}

// Authenticate exchanges code, or the pending code when code is "", for a
// bearer token. On success the token is stored and the pending code cleared.
// On failure the session and the stored token are left as they were.
func (f *Flow) Authenticate(ctx context.Context, code string) error {
	if code == "" {
		code = f.Session.PendingInitialCode
	}
	if code == "" {
		return errs.ErrNoCode
	}

	q := "client_id=" + url.QueryEscape(f.Session.ClientID) + "&initial_code=" + url.QueryEscape(code)
	resp, err := f.client.Do(ctx, client.Request{Method: http.MethodGet, Path: "/CubeAuth-authHeader", RawQuery: q})
	if err != nil {
		return err
	}

	var out models.AuthHeaderResponse
	_ = resp.Decode(&out)
	if !out.Success || out.AuthCode == "" {
		return appError(resp, out.Message, AuthFailed)
	}

	if err := f.store.Save(out.AuthCode, f.now().Add(CookieLifetime)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	f.Session.Token = out.AuthCode
	f.Session.PendingInitialCode = ""
	f.requested = false
	f.log.Info("paired", zap.String("client_id", f.Session.ClientID))
	return nil
}

// Logout forgets the token and removes the stored cookie.
func (f *Flow) Logout() error {
	f.Session.Token = ""
	f.Session.PendingInitialCode = ""
	f.requested = false
	return f.store.Clear()
}

func appError(resp *client.Response, msg, fallback string) *client.AppError {
	if msg == "" {
		msg = fallback
	}
	return &client.AppError{Status: resp.Status, Message: msg}
}
