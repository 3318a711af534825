// Package middle contains HTTP middleware for the sequitur debug server.
package middle

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dekarrin/sequitur/server/result"
)

// AuthKey identifies a value stashed in a request's context by RequireAuth.
type AuthKey int

const (
	// AuthLoggedIn holds a bool: whether the request carried a valid token.
	AuthLoggedIn AuthKey = iota
)

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(next http.Handler) http.Handler

// AuthHandler validates bearer tokens against a single shared admin secret,
// rather than looking users up in a database: there is exactly one
// administrator for a given server instance.
type AuthHandler struct {
	secretHash  []byte
	signingKey  []byte
	unauthDelay time.Duration
}

// NewAuthHandler hashes adminSecret with bcrypt (so the live secret is never
// held in comparable plaintext past startup) and returns an AuthHandler whose
// RequireAuth enforces bearer tokens signed with jwtSigningKey.
func NewAuthHandler(adminSecret string, jwtSigningKey []byte, unauthDelay time.Duration) (*AuthHandler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminSecret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &AuthHandler{secretHash: hash, signingKey: jwtSigningKey, unauthDelay: unauthDelay}, nil
}

// IssueToken mints a bearer token for adminSecret, or an error if it doesn't
// match the configured admin secret.
func (a *AuthHandler) IssueToken(adminSecret string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(a.secretHash, []byte(adminSecret)); err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"iss": "sequitur-debug-server",
		"sub": "admin",
		"exp": time.Now().Add(12 * time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return tok.SignedString(a.signingKey)
}

// RequireAuth returns Middleware that rejects any request without a valid
// bearer token, grounded on the teacher's AuthHandler.ServeHTTP pattern but
// without a user-repository lookup.
func (a *AuthHandler) RequireAuth() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokStr := bearerToken(r)
			if tokStr == "" {
				time.Sleep(a.unauthDelay)
				res := result.Unauthorized("", "missing bearer token")
				res.Log(r)
				res.WriteResponse(w, r)
				return
			}

			_, err := jwt.Parse(tokStr, func(t *jwt.Token) (interface{}, error) {
				return a.signingKey, nil
			}, jwt.WithValidMethods([]string{"HS512"}), jwt.WithIssuer("sequitur-debug-server"), jwt.WithLeeway(5*time.Second))
			if err != nil {
				time.Sleep(a.unauthDelay)
				res := result.Unauthorized("", "invalid bearer token: %s", err.Error())
				res.Log(r)
				res.WriteResponse(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), AuthLoggedIn, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimPrefix(h, prefix)
}

// WithRequestID is Middleware that mints a uuid for every request and
// stashes it in the request's context under result.RequestIDKey, so
// Result.Log can correlate its output across a request's handler chain.
func WithRequestID(newID func() string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), result.RequestIDKey, newID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
