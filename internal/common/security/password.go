package security

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"algo_tracker/internal/common"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// commonPasswords is matched case-insensitively.
var commonPasswords = map[string]struct{}{
	"password":   {},
	"password1":  {},
	"password1!": {},
	"p@ssw0rd":   {},
	"p@ssword1":  {},
	"passw0rd!":  {},
	"123456":     {},
	"12345678":   {},
	"qwerty":     {},
	"qwerty123!": {},
	"letmein":    {},
	"letmein1!":  {},
	"welcome1!":  {},
	"admin@123":  {},
	"abc123!@#":  {},
	"iloveyou1!": {},
	"changeme1!": {},
	"trustno1!":  {},
	"football1!": {},
	"sunshine1!": {},
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func CheckPasswordHash(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordPolicy enforces length, character classes and the
// common-password deny-list.
func ValidatePasswordPolicy(password string) error {
	n := len([]rune(password))
	if n < MinPasswordLength || n > MaxPasswordLength {
		return fmt.Errorf("password must be between %d and %d characters: %w", MinPasswordLength, MaxPasswordLength, common.ErrValidation)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	var missing []string
	if !upper {
		missing = append(missing, "an uppercase letter")
	}
	if !lower {
		missing = append(missing, "a lowercase letter")
	}
	if !digit {
		missing = append(missing, "a digit")
	}
	if !special {
		missing = append(missing, "a special character")
	}
	if len(missing) > 0 {
		return fmt.Errorf("password must contain %s: %w", strings.Join(missing, ", "), common.ErrValidation)
	}

	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return fmt.Errorf("password is too common: %w", common.ErrValidation)
	}
	return nil
}
