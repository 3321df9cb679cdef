package security

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie carrying the signed session id.
const SessionCookieName = "session"

const sessionIDClaim = "sid"

// SessionTokens signs and verifies the session cookie value. The token
// only carries the session id; everything else lives in the session store.
type SessionTokens struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

func NewSessionTokens(secret []byte, ttl time.Duration) *SessionTokens {
	return &SessionTokens{
		auth: jwtauth.New("HS256", secret, nil),
		ttl:  ttl,
	}
}

func (t *SessionTokens) TTL() time.Duration {
	return t.ttl
}

func (t *SessionTokens) Issue(sessionID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		sessionIDClaim: sessionID,
		"exp":          now.Add(t.ttl).Unix(),
		"iat":          now.Unix(),
	}
	_, tokenString, err := t.auth.Encode(claims)
	return tokenString, err
}

// Parse verifies tokenString and returns the session id it carries.
func (t *SessionTokens) Parse(tokenString string) (string, error) {
	token, err := jwtauth.VerifyToken(t.auth, tokenString)
	if err != nil {
		return "", err
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return "", err
	}
	return GetSessionIDFromClaims(claims)
}

// Verifier is the jwtauth middleware reading the session cookie.
func (t *SessionTokens) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verify(t.auth, TokenFromSessionCookie)
}

func TokenFromSessionCookie(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func GetSessionIDFromClaims(claims map[string]interface{}) (string, error) {
	sid, ok := claims[sessionIDClaim].(string)
	if !ok || sid == "" {
		return "", errors.New("sid claim is missing or not a string")
	}
	return sid, nil
}
