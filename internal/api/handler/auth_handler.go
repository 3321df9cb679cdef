package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"algo_tracker/internal/api/middleware"
	"algo_tracker/internal/app/service"
	"algo_tracker/internal/common"
	"algo_tracker/internal/domain/model"
)

type AuthService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req service.LoginRequest) (*model.User, error)
	CurrentUser(ctx context.Context, userID int64) (*model.User, error)
}

type AuthHandler struct {
	authService AuthService
	sessions    *middleware.Sessions
	limiter     *middleware.RateLimiter
	log         logrus.FieldLogger
}

func NewAuthHandler(authService AuthService, sessions *middleware.Sessions, limiter *middleware.RateLimiter, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		limiter:     limiter,
		log:         log,
	}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(limited chi.Router) {
		limited.Use(h.limiter.Handler)
		limited.Post("/register", h.register)
		limited.Post("/login", h.login)
	})
	r.Post("/logout", h.logout)
	r.Get("/authorized", h.authorized)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	if err := h.signIn(w, r, user); err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	user, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	if err := h.signIn(w, r, user); err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user.Profile())
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Destroy(w, r)
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) authorized(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok || !sess.Authenticated() {
		common.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.authService.CurrentUser(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			common.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user.Profile())
}

// signIn rotates the session onto user.
func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, user *model.User) error {
	return h.sessions.Start(w, r, &model.Session{
		UserID:  user.ID,
		Email:   user.Email,
		Picture: user.Picture,
	})
}
