package model

import (
	"time"
)

// Session is the server side state behind a session cookie. UserID is
// zero until a login completes.
type Session struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id,omitempty"`
	Email        string    `json:"email,omitempty"`
	Picture      string    `json:"picture,omitempty"`
	Nonce        string    `json:"nonce,omitempty"`
	State        string    `json:"state,omitempty"`
	PKCEVerifier string    `json:"pkce_verifier,omitempty"`
	AccessToken  string    `json:"access_token,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID > 0
}
