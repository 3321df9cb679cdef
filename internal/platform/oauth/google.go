package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	GoogleIssuer    = "https://accounts.google.com"
	GoogleRevokeURL = "https://oauth2.googleapis.com/revoke"
)

var ErrMissingIDToken = errors.New("token response carries no id_token")

// Identity is what a verified ID token tells us about the user.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
	Nonce   string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GoogleProvider drives the authorization code flow with PKCE and
// verifies ID tokens against Google's published keys.
type GoogleProvider struct {
	oauth      *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	revokeURL  string
	httpClient *http.Client
}

// NewGoogleProvider fetches the issuer discovery document.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig) (*GoogleProvider, error) {
	provider, err := oidc.NewProvider(ctx, GoogleIssuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	return newGoogleProvider(cfg, provider.Endpoint(), provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})), nil
}

func newGoogleProvider(cfg GoogleConfig, endpoint oauth2.Endpoint, verifier *oidc.IDTokenVerifier) *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier:   verifier,
		revokeURL:  GoogleRevokeURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *GoogleProvider) AuthCodeURL(state, nonce, pkceVerifier string) string {
	return p.oauth.AuthCodeURL(state,
		oidc.Nonce(nonce),
		oauth2.S256ChallengeOption(pkceVerifier),
	)
}

// Exchange trades code for tokens and verifies the ID token signature,
// issuer, audience and expiry. The nonce is returned for the caller to
// compare with the one it issued.
func (p *GoogleProvider) Exchange(ctx context.Context, code, pkceVerifier string) (*Identity, *oauth2.Token, error) {
	tok, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(pkceVerifier))
	if err != nil {
		return nil, nil, fmt.Errorf("code exchange: %w", err)
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, nil, ErrMissingIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, nil, fmt.Errorf("id token verification: %w", err)
	}

	var claims struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, nil, fmt.Errorf("id token claims: %w", err)
	}

	return &Identity{
		Subject: idToken.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
		Nonce:   idToken.Nonce,
	}, tok, nil
}

// Revoke asks the provider to invalidate token and returns the HTTP
// status it answered with.
func (p *GoogleProvider) Revoke(ctx context.Context, token string) (int, error) {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("revoke request: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// RandomToken returns n random bytes, base64url encoded without padding.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewPKCEVerifier returns a fresh code verifier.
func NewPKCEVerifier() string {
	return oauth2.GenerateVerifier()
}
