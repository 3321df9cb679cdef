package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"algo_tracker/internal/common"
	"algo_tracker/internal/common/security"
	"algo_tracker/internal/domain/model"
)

const SessionCtxKey contextKey = "session"

type SessionStore interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, sess *model.Session) error
	Delete(ctx context.Context, id string) error
}

// Sessions ties the signed session cookie to the server side store.
type Sessions struct {
	store  SessionStore
	tokens *security.SessionTokens
	secure bool
	log    logrus.FieldLogger
}

func NewSessions(store SessionStore, tokens *security.SessionTokens, secure bool, log logrus.FieldLogger) *Sessions {
	return &Sessions{
		store:  store,
		tokens: tokens,
		secure: secure,
		log:    log.WithField("component", "sessions"),
	}
}

// Load resolves the session cookie, when there is one, and puts the stored
// session in the request context. It never rejects a request; the guards
// decide what an anonymous caller may do.
func (s *Sessions) Load(next http.Handler) http.Handler {
	return s.tokens.Verifier()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			next.ServeHTTP(w, r)
			return
		}

		sid, err := security.GetSessionIDFromClaims(claims)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := s.store.Get(r.Context(), sid)
		if err != nil {
			if !errors.Is(err, common.ErrNotFound) {
				s.log.WithError(err).Warn("failed to load session")
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), SessionCtxKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	}))
}

// Start replaces whatever session the request carries with a fresh one
// built from sess and sets the cookie. The id is always newly generated.
func (s *Sessions) Start(w http.ResponseWriter, r *http.Request, sess *model.Session) error {
	if old, ok := SessionFromContext(r.Context()); ok {
		if err := s.store.Delete(r.Context(), old.ID); err != nil {
			s.log.WithError(err).Warn("failed to drop previous session")
		}
	}

	sess.ID = uuid.NewString()
	sess.CreatedAt = time.Now().UTC()
	if err := s.store.Save(r.Context(), sess); err != nil {
		return err
	}

	token, err := s.tokens.Issue(sess.ID)
	if err != nil {
		return err
	}
	s.setCookie(w, token, int(s.tokens.TTL().Seconds()))
	return nil
}

// Destroy removes the current session, if any, and expires the cookie.
func (s *Sessions) Destroy(w http.ResponseWriter, r *http.Request) {
	if sess, ok := SessionFromContext(r.Context()); ok {
		if err := s.store.Delete(r.Context(), sess.ID); err != nil {
			s.log.WithError(err).WithField("session_id", sess.ID).Warn("failed to delete session")
		}
	}
	s.setCookie(w, "", -1)
}

func (s *Sessions) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     security.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	sess, ok := ctx.Value(SessionCtxKey).(*model.Session)
	return sess, ok && sess != nil
}
