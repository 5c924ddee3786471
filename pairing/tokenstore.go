package pairing

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"cube-panel/middleware"
)

// CookieLifetime is how long a paired token is kept.
const CookieLifetime = 365 * 24 * time.Hour

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	// Load returns the stored token, or "" when none is stored or it expired.
	Load() (string, error)
	Save(token string, expires time.Time) error
	Clear() error
}

type cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path"`
	Expires time.Time `json:"expires"`
}

// CookieFile keeps the cube_auth cookie as a JSON file.
type CookieFile struct {
	Path string
	Now  func() time.Time
}

// ConfigDir returns $XDG_CONFIG_HOME/cube-panel, or ~/.config/cube-panel.
func ConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "cube-panel")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cube-panel")
}

// DefaultCookieFile stores the cookie in ConfigDir.
func DefaultCookieFile() *CookieFile {
	return &CookieFile{Path: filepath.Join(ConfigDir(), "cookie.json")}
}

func (f *CookieFile) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *CookieFile) Load() (string, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var c cookie
	if err := json.Unmarshal(b, &c); err != nil {
		return "", err
	}
	if c.Name != middleware.CookieName || f.now().After(c.Expires) {
		return "", nil
	}
	return c.Value, nil
}

func (f *CookieFile) Save(token string, expires time.Time) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cookie{
		Name:    middleware.CookieName,
		Value:   token,
		Path:    "/",
		Expires: expires,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, b, 0o600)
}

func (f *CookieFile) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
