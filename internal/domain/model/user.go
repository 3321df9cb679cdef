package model

import (
	"regexp"
	"strings"
	"time"
)

const ProviderGoogle = "google"

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

type User struct {
	ID            int64     `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	UserName      string    `db:"user_name" json:"user_name"`
	Picture       string    `db:"picture" json:"picture"`
	PasswordHash  *string   `db:"password_hash" json:"-"` // Not exposed
	OAuthProvider *string   `db:"oauth_provider" json:"oauth_provider,omitempty"`
	OAuthID       *string   `db:"oauth_id" json:"oauth_id,omitempty"`
	IsAdmin       bool      `db:"is_admin" json:"is_admin"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Profile is the shape returned by /api/authorized.
type Profile struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	UserName string `json:"user_name"`
	Picture  string `json:"picture"`
	IsAdmin  bool   `json:"is_admin"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:       u.ID,
		Email:    u.Email,
		UserName: u.UserName,
		Picture:  u.Picture,
		IsAdmin:  u.IsAdmin,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail expects an already normalized address.
func ValidEmail(email string) bool {
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return false
	}
	return emailPattern.MatchString(email)
}

// LocalPart returns the part of an email before the "@".
func LocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}
