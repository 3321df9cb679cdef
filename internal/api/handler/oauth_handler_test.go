package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"algo_tracker/internal/api/middleware"
	"algo_tracker/internal/app/service"
	"algo_tracker/internal/common"
	"algo_tracker/internal/common/security"
	"algo_tracker/internal/domain/model"
	"algo_tracker/internal/platform/oauth"
)

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func (s *memSessions) Get(ctx context.Context, id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &sess, nil
}

func (s *memSessions) Save(ctx context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *memSessions) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

type fakeProvider struct {
	identity  *oauth.Identity
	exchErr   error
	revokeErr error
	revoked   []string
}

func (p *fakeProvider) AuthCodeURL(state, nonce, pkceVerifier string) string {
	return "https://accounts.example.com/auth?" + url.Values{"state": {state}, "nonce": {nonce}}.Encode()
}

func (p *fakeProvider) Exchange(ctx context.Context, code, pkceVerifier string) (*oauth.Identity, *oauth2.Token, error) {
	if p.exchErr != nil {
		return nil, nil, p.exchErr
	}
	return p.identity, &oauth2.Token{AccessToken: "access-" + code}, nil
}

func (p *fakeProvider) Revoke(ctx context.Context, token string) (int, error) {
	p.revoked = append(p.revoked, token)
	if p.revokeErr != nil {
		return 0, p.revokeErr
	}
	return http.StatusBadRequest, nil
}

type fakeGoogleAuth struct{}

func (fakeGoogleAuth) LoginWithGoogle(ctx context.Context, id service.GoogleIdentity) (*model.User, error) {
	return &model.User{ID: 11, Email: id.Email, Picture: id.Picture}, nil
}

type oauthFixture struct {
	store    *memSessions
	tokens   *security.SessionTokens
	provider *fakeProvider
	router   chi.Router
}

func newOAuthFixture(t *testing.T) *oauthFixture {
	log, _ := test.NewNullLogger()
	f := &oauthFixture{
		store:    &memSessions{sessions: map[string]model.Session{}},
		tokens:   security.NewSessionTokens([]byte("oauth-secret"), time.Hour),
		provider: &fakeProvider{},
	}
	sessions := middleware.NewSessions(f.store, f.tokens, false, log)

	r := chi.NewRouter()
	r.Use(sessions.Load)
	NewOAuthHandler(f.provider, fakeGoogleAuth{}, sessions, "http://localhost:3000", log).RegisterRoutes(r)
	f.router = r
	return f
}

func (f *oauthFixture) get(t *testing.T, target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == security.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func (f *oauthFixture) session(t *testing.T, cookie *http.Cookie) *model.Session {
	t.Helper()
	sid, err := f.tokens.Parse(cookie.Value)
	require.NoError(t, err)
	sess, err := f.store.Get(context.Background(), sid)
	require.NoError(t, err)
	return sess
}

// begin runs /google/ and returns the anonymous session it created.
func (f *oauthFixture) begin(t *testing.T) (*http.Cookie, *model.Session) {
	rr := f.get(t, "/google/", nil)
	require.Equal(t, http.StatusFound, rr.Code)
	cookie := sessionCookie(t, rr)
	sess := f.session(t, cookie)

	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, sess.State, loc.Query().Get("state"))
	assert.Equal(t, sess.Nonce, loc.Query().Get("nonce"))
	assert.NotEmpty(t, sess.PKCEVerifier)
	assert.False(t, sess.Authenticated())
	return cookie, sess
}

func TestOAuthCallback(t *testing.T) {
	t.Run("state mismatch", func(t *testing.T) {
		f := newOAuthFixture(t)
		cookie, _ := f.begin(t)

		rr := f.get(t, "/google/auth?state=forged&code=abc", cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid state")
	})

	t.Run("no session", func(t *testing.T) {
		f := newOAuthFixture(t)
		rr := f.get(t, "/google/auth?state=x&code=abc", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("nonce mismatch", func(t *testing.T) {
		f := newOAuthFixture(t)
		cookie, sess := f.begin(t)
		f.provider.identity = &oauth.Identity{Subject: "sub", Email: "jane@example.com", Nonce: "replayed"}

		rr := f.get(t, "/google/auth?code=abc&state="+sess.State, cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid nonce")
	})

	t.Run("failed exchange", func(t *testing.T) {
		f := newOAuthFixture(t)
		cookie, sess := f.begin(t)
		f.provider.exchErr = errors.New("id token verification: bad signature")

		rr := f.get(t, "/google/auth?code=abc&state="+sess.State, cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("success rotates session", func(t *testing.T) {
		f := newOAuthFixture(t)
		cookie, sess := f.begin(t)
		f.provider.identity = &oauth.Identity{Subject: "sub", Email: "jane@example.com", Picture: "https://p", Nonce: sess.Nonce}

		rr := f.get(t, "/google/auth?code=abc&state="+sess.State, cookie)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "window.opener.postMessage")

		signedIn := f.session(t, sessionCookie(t, rr))
		assert.NotEqual(t, sess.ID, signedIn.ID)
		assert.Equal(t, int64(11), signedIn.UserID)
		assert.Equal(t, "jane@example.com", signedIn.Email)
		assert.Equal(t, "access-abc", signedIn.AccessToken)

		_, err := f.store.Get(context.Background(), sess.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestOAuthRevoke(t *testing.T) {
	t.Run("without token", func(t *testing.T) {
		f := newOAuthFixture(t)
		rr := f.get(t, "/revoke", nil)
		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/clear", rr.Header().Get("Location"))
	})

	t.Run("provider failure still clears session", func(t *testing.T) {
		f := newOAuthFixture(t)
		f.provider.revokeErr = errors.New("connection refused")
		require.NoError(t, f.store.Save(context.Background(), &model.Session{ID: "s1", UserID: 3, AccessToken: "tok"}))
		token, err := f.tokens.Issue("s1")
		require.NoError(t, err)

		rr := f.get(t, "/revoke", &http.Cookie{Name: security.SessionCookieName, Value: token})
		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "http://localhost:3000", rr.Header().Get("Location"))
		assert.Equal(t, []string{"tok"}, f.provider.revoked)

		_, err = f.store.Get(context.Background(), "s1")
		assert.ErrorIs(t, err, common.ErrNotFound)
		assert.Less(t, sessionCookie(t, rr).MaxAge, 0)
	})
}

func TestOAuthClear(t *testing.T) {
	f := newOAuthFixture(t)
	cookie, sess := f.begin(t)

	rr := f.get(t, "/clear", cookie)
	assert.Equal(t, http.StatusFound, rr.Code)
	_, err := f.store.Get(context.Background(), sess.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
