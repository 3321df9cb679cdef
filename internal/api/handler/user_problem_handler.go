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

type UserProblemService interface {
	ListUserProblems(ctx context.Context, page common.Page) (*service.ListUserProblemsResult, error)
	ListForUser(ctx context.Context, userID int64) ([]model.UserProblem, error)
	CreateUserProblem(ctx context.Context, userID int64, req service.CreateUserProblemRequest) (*model.UserProblem, error)
	GetUserProblem(ctx context.Context, userID, problemID int64) (*model.UserProblem, error)
	UpdateUserProblem(ctx context.Context, userID, problemID int64, req service.UpdateUserProblemRequest) (*model.UserProblem, error)
	DeleteUserProblem(ctx context.Context, userID, problemID int64) error
}

type UserProblemHandler struct {
	attemptService UserProblemService
	guard          *middleware.Guard
	log            logrus.FieldLogger
}

func NewUserProblemHandler(ups UserProblemService, guard *middleware.Guard, log logrus.FieldLogger) *UserProblemHandler {
	return &UserProblemHandler{attemptService: ups, guard: guard, log: log}
}

// RegisterRoutes mounts the collection under /api/user-problems.
func (h *UserProblemHandler) RegisterRoutes(r chi.Router) {
	r.With(h.guard.AdminOnly).Get("/", h.listAll)
	r.With(h.guard.Authenticated).Post("/", h.create)
}

// RegisterUserRoutes mounts the per-user routes under /api/users.
func (h *UserProblemHandler) RegisterUserRoutes(r chi.Router) {
	r.Group(func(owner chi.Router) {
		owner.Use(h.guard.OwnerOrAdmin("userID"))
		owner.Get("/{userID}/problems", h.listForUser)
		owner.Get("/{userID}/problems/{problemID}", h.get)
		owner.Patch("/{userID}/problems/{problemID}", h.update)
		owner.Delete("/{userID}/problems/{problemID}", h.delete)
	})
}

func (h *UserProblemHandler) listAll(w http.ResponseWriter, r *http.Request) {
	res, err := h.attemptService.ListUserProblems(r.Context(), common.PageFromQuery(r.URL.Query()))
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

func (h *UserProblemHandler) listForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID", "user")
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	attempts, err := h.attemptService.ListForUser(r.Context(), userID)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, attempts)
}

// create always records the attempt for the caller; a user_id in the body
// has no field to land in.
func (h *UserProblemHandler) create(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFromContext(r.Context())

	var req service.CreateUserProblemRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	attempt, err := h.attemptService.CreateUserProblem(r.Context(), caller.ID, req)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, attempt)
}

func (h *UserProblemHandler) get(w http.ResponseWriter, r *http.Request) {
	userID, problemID, err := attemptKey(r)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	attempt, err := h.attemptService.GetUserProblem(r.Context(), userID, problemID)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, attempt)
}

func (h *UserProblemHandler) update(w http.ResponseWriter, r *http.Request) {
	userID, problemID, err := attemptKey(r)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	var req service.UpdateUserProblemRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	attempt, err := h.attemptService.UpdateUserProblem(r.Context(), userID, problemID, req)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, attempt)
}

func (h *UserProblemHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID, problemID, err := attemptKey(r)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	if err := h.attemptService.DeleteUserProblem(r.Context(), userID, problemID); err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	respondNoContent(w)
}

func attemptKey(r *http.Request) (userID, problemID int64, err error) {
	if userID, err = pathID(r, "userID", "user problem"); err != nil {
		return 0, 0, err
	}
	if problemID, err = pathID(r, "problemID", "user problem"); err != nil {
		return 0, 0, err
	}
	return userID, problemID, nil
}
