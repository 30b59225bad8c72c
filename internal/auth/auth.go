// internal/auth/auth.go
//
// Player identity for the HTTP surface.
// Responsibilities:
//   - HS256 JWT issue/verify carrying the player id.
//   - Auth cookie set/clear with production-aware security attributes.
//   - Token lookup from "Authorization: Bearer" or the auth cookie.
//   - Middleware: Optional decorates the request with the player id when a
//     valid token is present; Require rejects requests without one.
//
// Login is identifier-only: there are no passwords, the player id is the
// account.

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by Parse for any unusable token.
var ErrInvalidToken = errors.New("invalid token")

// Config holds signing and cookie settings.
type Config struct {
	Secret      string
	ExpiresDays int
	CookieName  string
	Secure      bool // Secure + SameSite=None cookies
}

// Auth signs and verifies player tokens.
type Auth struct {
	cfg Config
	now func() time.Time
}

// New returns an Auth; zero fields get development defaults.
func New(cfg Config) *Auth {
	if cfg.Secret == "" {
		cfg.Secret = "dev_secret_change_me"
	}
	if cfg.ExpiresDays <= 0 {
		cfg.ExpiresDays = 14
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "pixelwords_token"
	}
	return &Auth{cfg: cfg, now: time.Now}
}

// CookieName is the name of the auth cookie.
func (a *Auth) CookieName() string { return a.cfg.CookieName }

// Sign creates a token for userID and returns it with its expiry.
func (a *Auth) Sign(userID string) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(time.Duration(a.cfg.ExpiresDays) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := t.SignedString([]byte(a.cfg.Secret))
	return ss, exp, err
}

// Parse verifies tok and returns the player id it carries.
func (a *Auth) Parse(tok string) (string, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(a.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return "", ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return "", ErrInvalidToken
	}
	return id, nil
}

// ------------------------------ cookies ------------------------------------

// SetCookie writes the auth token cookie.
func (a *Auth) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	c := a.cookie()
	c.Value = token
	c.Expires = exp
	http.SetCookie(w, c)
}

// ClearCookie deletes the auth token cookie.
func (a *Auth) ClearCookie(w http.ResponseWriter) {
	c := a.cookie()
	c.MaxAge = -1
	http.SetCookie(w, c)
}

func (a *Auth) cookie() *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if a.cfg.Secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	return &http.Cookie{
		Name:     a.cfg.CookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.cfg.Secure,
		SameSite: sameSite,
	}
}

// TokenFrom extracts a bearer token from the Authorization header or the auth cookie.
func (a *Auth) TokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// ---------------------------- middleware -----------------------------------

type ctxUserKey struct{}

// WithUser returns ctx carrying the player id.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, userID)
}

// UserID returns the player id placed by the middleware.
func UserID(ctx context.Context) (string, bool) {
	id, _ := ctx.Value(ctxUserKey{}).(string)
	return id, id != ""
}

// Optional decorates requests with the player id if a valid token is present.
// It never rejects.
func (a *Auth) Optional() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := a.TokenFrom(r); tok != "" {
				if id, err := a.Parse(tok); err == nil {
					r = r.WithContext(WithUser(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require enforces a valid token and injects the player id.
func (a *Auth) Require() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := a.TokenFrom(r)
			if tok == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			id, err := a.Parse(tok)
			if err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), id)))
		})
	}
}
