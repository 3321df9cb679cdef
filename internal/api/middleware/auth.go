package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"algo_tracker/internal/common"
	"algo_tracker/internal/domain/model"
)

type contextKey string

const UserCtxKey contextKey = "user"

const (
	msgAuthRequired  = "Authentication required"
	msgAdminRequired = "Admin privileges required"
	msgNotOwner      = "Forbidden: You can only access your own resources"
)

type UserLookup interface {
	CurrentUser(ctx context.Context, userID int64) (*model.User, error)
}

// Guard holds the authorization middlewares. Each one expects Sessions.Load
// to have run earlier in the chain.
type Guard struct {
	users UserLookup
	log   logrus.FieldLogger
}

func NewGuard(users UserLookup, log logrus.FieldLogger) *Guard {
	return &Guard{users: users, log: log.WithField("component", "guard")}
}

// Authenticated rejects requests whose session does not resolve to an
// existing user and stores that user in the context otherwise.
func (g *Guard) Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok || !sess.Authenticated() {
			common.RespondWithError(w, http.StatusUnauthorized, msgAuthRequired)
			return
		}

		user, err := g.users.CurrentUser(r.Context(), sess.UserID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				common.RespondWithError(w, http.StatusUnauthorized, msgAuthRequired)
				return
			}
			common.RespondWithErr(w, g.log, err)
			return
		}

		ctx := context.WithValue(r.Context(), UserCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Guard) AdminOnly(next http.Handler) http.Handler {
	return g.Authenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		if !user.IsAdmin {
			common.RespondWithError(w, http.StatusForbidden, msgAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// OwnerOrAdmin lets admins through and otherwise requires the URL parameter
// param to equal the caller's user id.
func (g *Guard) OwnerOrAdmin(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.Authenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := UserFromContext(r.Context())
			if user.IsAdmin {
				next.ServeHTTP(w, r)
				return
			}

			id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
			if err != nil || id != user.ID {
				common.RespondWithError(w, http.StatusForbidden, msgNotOwner)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok && user != nil
}
