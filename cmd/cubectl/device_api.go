package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cube-panel/endpoints"

	"github.com/golang-jwt/jwt/v5"
)

func (a *app) dispatcher() (*endpoints.Dispatcher, error) {
	f, err := a.flow()
	if err != nil {
		return nil, err
	}
	return endpoints.NewDispatcher(a.client, f), nil
}

func (a *app) endpoints(ctx context.Context) error {
	d, err := a.dispatcher()
	if err != nil {
		return err
	}
	m, err := d.Fetch(ctx)
	if err != nil {
		return err
	}
	return endpoints.WriteText(a.out, endpoints.Render(m))
}

// call submits one manifest endpoint with key=value arguments and prints the
// reply, whatever its status.
func (a *app) call(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	values := map[string]string{}
	for _, kv := range args[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("argument %q is not key=value", kv)
		}
		values[k] = v
	}

	d, err := a.dispatcher()
	if err != nil {
		return err
	}
	m, err := d.Fetch(ctx)
	if err != nil {
		return err
	}
	desc, ok := m.LookupPath(args[0])
	if !ok {
		return fmt.Errorf("endpoint %q is not in the device manifest", args[0])
	}
	form := endpoints.FormFor(desc)
	for k := range values {
		if !hasField(form, k) {
			return fmt.Errorf("endpoint %s has no parameter %q", args[0], k)
		}
	}

	resp, err := d.Submit(ctx, form, values)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(resp.Body))
	return nil
}

func hasField(f endpoints.Form, name string) bool {
	for _, fld := range f.Fields {
		if fld.Name == name {
			return true
		}
	}
	return false
}

// pair requests an initial code and exchanges it. With -display the device
// shows the code and it is read from stdin.
func (a *app) pair(ctx context.Context, args []string) error {
	fs := newFlags("pair")
	display := fs.Bool("display", false, "have the device display the code instead of returning it")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	f, err := a.flow()
	if err != nil {
		return err
	}

	code, err := f.RequestInitialCode(ctx, !*display)
	if err != nil {
		return err
	}
	if code != "" {
		fmt.Fprintln(a.out, "Initial code:", code)
	} else {
		fmt.Fprint(a.out, "Enter the code shown on the device: ")
		sc := bufio.NewScanner(a.in)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return err
			}
			return errors.New("no code entered")
		}
		code = strings.TrimSpace(sc.Text())
	}

	if err := f.Authenticate(ctx, code); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Authenticated")
	return nil
}

func (a *app) auth(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	f, err := a.flow()
	if err != nil {
		return err
	}
	if err := f.Authenticate(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Authenticated")
	return nil
}

func (a *app) logout() error {
	f, err := a.flow()
	if err != nil {
		return err
	}
	if err := f.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// whoami shows the client id, the pairing state and the token's claims. The
// token is not verified; only the device holds the key.
func (a *app) whoami() error {
	f, err := a.flow()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "client id:", f.Session.ClientID)
	fmt.Fprintln(a.out, "state:    ", f.State())
	if f.Token() == "" {
		return nil
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(f.Token(), &claims); err != nil {
		fmt.Fprintln(a.out, "token:     opaque")
		return nil
	}
	if claims.Subject != "" {
		fmt.Fprintln(a.out, "subject:  ", claims.Subject)
	}
	if claims.IssuedAt != nil {
		fmt.Fprintln(a.out, "issued:   ", claims.IssuedAt.Time.Format(time.RFC3339))
	}
	if claims.ExpiresAt != nil {
		fmt.Fprintln(a.out, "expires:  ", claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return nil
}
