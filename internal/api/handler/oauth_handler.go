package handler

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"algo_tracker/internal/api/middleware"
	"algo_tracker/internal/app/service"
	"algo_tracker/internal/common"
	"algo_tracker/internal/domain/model"
	"algo_tracker/internal/platform/oauth"
)

// popupPage hands control back to the window that opened the consent popup.
const popupPage = `<html>Success!<script type="text/javascript">
window.onload = function() {
	window.opener.postMessage({url: window.location.href}, '*');
	window.close();
}
</script></html>`

type OAuthProvider interface {
	AuthCodeURL(state, nonce, pkceVerifier string) string
	Exchange(ctx context.Context, code, pkceVerifier string) (*oauth.Identity, *oauth2.Token, error)
	Revoke(ctx context.Context, token string) (int, error)
}

type GoogleAuthenticator interface {
	LoginWithGoogle(ctx context.Context, id service.GoogleIdentity) (*model.User, error)
}

type OAuthHandler struct {
	provider    OAuthProvider
	auth        GoogleAuthenticator
	sessions    *middleware.Sessions
	frontendURL string
	log         logrus.FieldLogger
}

func NewOAuthHandler(provider OAuthProvider, auth GoogleAuthenticator, sessions *middleware.Sessions, frontendURL string, log logrus.FieldLogger) *OAuthHandler {
	return &OAuthHandler{
		provider:    provider,
		auth:        auth,
		sessions:    sessions,
		frontendURL: frontendURL,
		log:         log.WithField("component", "oauth"),
	}
}

func (h *OAuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/google", h.start)
	r.Get("/google/", h.start)
	r.Get("/google/auth", h.callback)
	r.Get("/clear", h.clear)
	r.Get("/revoke", h.revoke)
}

func (h *OAuthHandler) start(w http.ResponseWriter, r *http.Request) {
	nonce, err := oauth.RandomToken(16)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	state, err := oauth.RandomToken(16)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	sess := &model.Session{
		Nonce:        nonce,
		State:        state,
		PKCEVerifier: oauth.NewPKCEVerifier(),
	}
	if err := h.sessions.Start(w, r, sess); err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	http.Redirect(w, r, h.provider.AuthCodeURL(state, nonce, sess.PKCEVerifier), http.StatusFound)
}

func (h *OAuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	q := r.URL.Query()
	if !ok || !sameSecret(q.Get("state"), sess.State) {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid state")
		return
	}
	if reason := q.Get("error"); reason != "" {
		h.log.WithField("reason", reason).Info("google consent denied")
		common.RespondWithError(w, http.StatusBadRequest, "Google sign-in was cancelled")
		return
	}
	code := q.Get("code")
	if code == "" {
		common.RespondWithError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	identity, token, err := h.provider.Exchange(r.Context(), code, sess.PKCEVerifier)
	if err != nil {
		h.log.WithError(err).Warn("google token exchange failed")
		common.RespondWithError(w, http.StatusBadRequest, "Google sign-in failed")
		return
	}
	if !sameSecret(identity.Nonce, sess.Nonce) {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid nonce")
		return
	}

	user, err := h.auth.LoginWithGoogle(r.Context(), service.GoogleIdentity{
		Subject: identity.Subject,
		Email:   identity.Email,
		Name:    identity.Name,
		Picture: identity.Picture,
	})
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	err = h.sessions.Start(w, r, &model.Session{
		UserID:      user.ID,
		Email:       user.Email,
		Picture:     user.Picture,
		AccessToken: token.AccessToken,
	})
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	h.log.WithField("user_id", user.ID).Info("google sign-in")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(popupPage))
}

func (h *OAuthHandler) clear(w http.ResponseWriter, r *http.Request) {
	h.sessions.Destroy(w, r)
	http.Redirect(w, r, h.frontendURL, http.StatusFound)
}

// revoke clears the session whatever the provider answers.
func (h *OAuthHandler) revoke(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok || sess.AccessToken == "" {
		http.Redirect(w, r, "/clear", http.StatusFound)
		return
	}

	status, err := h.provider.Revoke(r.Context(), sess.AccessToken)
	switch {
	case err != nil:
		h.log.WithError(err).Warn("token revocation failed")
	case status != http.StatusOK:
		h.log.WithField("status", status).Warn("provider refused token revocation")
	}

	h.sessions.Destroy(w, r)
	http.Redirect(w, r, h.frontendURL, http.StatusFound)
}

// sameSecret compares in constant time and never matches an empty secret.
func sameSecret(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
