// Package config loads cube-server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultPort is the port TheCube's HTTP API listens on.
const DefaultPort = "55280"

type Config struct {
	Port       string
	DBPath     string
	JWTSecret  string
	CORSOrigin []string
	Host       string
	IP         string
	// InlineCodes lets /CubeAuth-initCode return the code in the response
	// when the client asks with return_code=1.
	InlineCodes bool
}

// LoadDotenv loads the first .env found in the working directory or its parents.
// It returns the path it loaded, or "" if none was found.
func LoadDotenv() string {
	for _, p := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(p); err == nil {
			if godotenv.Load(p) == nil {
				return p
			}
		}
	}
	return ""
}

func Load() Config {
	var origins []string
	for _, p := range strings.Split(getenv("CORS_ORIGIN", "*"), ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return Config{
		Port:        getenv("PORT", DefaultPort),
		DBPath:      getenv("DB_PATH", "./cube.db"),
		JWTSecret:   getenv("JWT_SECRET", "cube-secret-key-change-in-production"),
		CORSOrigin:  origins,
		Host:        getenv("CUBE_HOST", "thecube.local"),
		IP:          getenv("CUBE_IP", "192.168.1.42"),
		InlineCodes: getbool("CUBE_INLINE_CODES", true),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}
