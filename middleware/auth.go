package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the cookie the control panel keeps its bearer token in.
const CookieName = "cube_auth"

// TokenTTL matches the lifetime of the cube_auth cookie.
const TokenTTL = 365 * 24 * time.Hour

type contextKey string

const ClientIDKey contextKey = "clientID"

type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// TokenRegistry reports whether an issued token is still assigned to a client.
// Re-pairing a client replaces its token, which revokes the old one.
type TokenRegistry interface {
	AuthCodeExists(authCode string) (bool, error)
}

type Auth struct {
	secret []byte
	tokens TokenRegistry
}

func NewAuth(secret []byte, tokens TokenRegistry) *Auth {
	return &Auth{secret: secret, tokens: tokens}
}

func (a *Auth) GenerateToken(clientID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *Auth) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}

// Require wraps a private endpoint. The token comes from the Authorization
// header or, failing that, the cube_auth cookie.
func (a *Auth) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := tokenFromRequest(r)
		if err != nil {
			unauthorized(w, err.Error())
			return
		}

		claims, err := a.ValidateToken(tokenString)
		if err != nil {
			unauthorized(w, "Invalid token")
			return
		}

		if a.tokens != nil {
			ok, err := a.tokens.AuthCodeExists(tokenString)
			if err != nil || !ok {
				unauthorized(w, "Auth code not found.")
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(SetClientID(r.Context(), claims.ClientID)))
	}
}

func tokenFromRequest(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return "", errors.New("Invalid authorization format")
		}
		return tokenString, nil
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", errors.New("Authorization header required")
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}

func GetClientID(r *http.Request) string {
	if clientID, ok := r.Context().Value(ClientIDKey).(string); ok {
		return clientID
	}
	return ""
}

func SetClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ClientIDKey, clientID)
}
