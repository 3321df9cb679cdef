package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"algo_tracker/internal/api/middleware"
	"algo_tracker/internal/app/service"
	"algo_tracker/internal/common"
	"algo_tracker/internal/domain/model"
)

type UserService interface {
	ListUsers(ctx context.Context, page common.Page) (*service.ListUsersResult, error)
	CreateUser(ctx context.Context, req service.CreateUserRequest) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	UpdateUser(ctx context.Context, id int64, req service.UpdateUserRequest, asAdmin bool) (*model.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type UserHandler struct {
	userService UserService
	guard       *middleware.Guard
	log         logrus.FieldLogger
}

func NewUserHandler(us UserService, guard *middleware.Guard, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{userService: us, guard: guard, log: log}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(h.guard.AdminOnly)
		adminRouter.Get("/", h.listUsers)
		adminRouter.Post("/", h.createUser)
	})

	r.Group(func(owner chi.Router) {
		owner.Use(h.guard.OwnerOrAdmin("userID"))
		owner.Get("/{userID}", h.getUser)
		owner.Patch("/{userID}", h.updateUser)
		owner.Delete("/{userID}", h.deleteUser)
	})
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	res, err := h.userService.ListUsers(r.Context(), common.PageFromQuery(r.URL.Query()))
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

func (h *UserHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	user, err := h.userService.CreateUser(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID", "user")
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID", "user")
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	var req service.UpdateUserRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	caller, _ := middleware.UserFromContext(r.Context())
	user, err := h.userService.UpdateUser(r.Context(), id, req, caller.IsAdmin)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID", "user")
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	if err := h.userService.DeleteUser(r.Context(), id); err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	respondNoContent(w)
}
