// internal/httpserver/token.go
//
// Per-game session tokens.
// A token is an HS256 JWT whose subject is the game ID; it is handed out by
// POST /game/new and required by every /game/{id} route. The HMAC key is derived
// from SESSION_SECRET with HKDF so the raw secret never signs anything directly.
//
// Tokens are accepted from (in order): Authorization: Bearer, the session cookie,
// or a ?token= query parameter (browsers cannot set headers on WebSocket dials).
//
// Tokens carry no exp claim. Expiry follows the session: requireGameToken rejects
// a game idle for longer than SessionTTL and slides the cookie on every request,
// so a player who keeps playing is never locked out of a live game.

package httpserver

import (
	"crypto/sha256"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const (
	cookieName = "memory_session"
	hkdfInfo   = "memory-game session token v1"
)

var errInvalidToken = errors.New("invalid token")

type tokenIssuer struct {
	key []byte
	ttl time.Duration
}

func newTokenIssuer(secret string, ttl time.Duration) (*tokenIssuer, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, err
	}
	return &tokenIssuer{key: key, ttl: ttl}, nil
}

// issue signs a token for gameID. The returned time is the idle deadline: the
// token stops working if the game sees no command before it.
func (ti *tokenIssuer) issue(gameID string) (string, time.Time, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  gameID,
		IssuedAt: jwt.NewNumericDate(now),
	})
	ss, err := t.SignedString(ti.key)
	return ss, ti.deadline(now), err
}

// deadline is the idle cutoff for a game last active at t.
func (ti *tokenIssuer) deadline(t time.Time) time.Time { return t.Add(ti.ttl) }

// verify returns the game ID a valid token was issued for.
func (ti *tokenIssuer) verify(tok string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return ti.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid || claims.Subject == "" {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}

// setSessionCookie writes the token cookie.
func setSessionCookie(w http.ResponseWriter, token string, exp time.Time, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for third‑party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// clearSessionCookie deletes the token cookie.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// tokenFromRequest extracts a token from the Authorization header, cookie or query.
func tokenFromRequest(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("token")
}
