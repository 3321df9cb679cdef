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

type ProblemService interface {
	CreateProblem(ctx context.Context, req service.CreateProblemRequest) (*model.Problem, error)
	GetProblem(ctx context.Context, id int64) (*model.Problem, error)
	ListProblems(ctx context.Context, filter model.ProblemFilter, page common.Page) (*service.ListProblemsResult, error)
	UpdateProblem(ctx context.Context, id int64, req service.UpdateProblemRequest) (*model.Problem, error)
	DeleteProblem(ctx context.Context, id int64) error
}

type ProblemHandler struct {
	problemService ProblemService
	guard          *middleware.Guard
	log            logrus.FieldLogger
}

func NewProblemHandler(ps ProblemService, guard *middleware.Guard, log logrus.FieldLogger) *ProblemHandler {
	return &ProblemHandler{problemService: ps, guard: guard, log: log}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(authed chi.Router) {
		authed.Use(h.guard.Authenticated)
		authed.Get("/", h.listProblems)          // GET /api/problems
		authed.Get("/{problemID}", h.getProblem) // GET /api/problems/{id}
	})

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(h.guard.AdminOnly)
		adminRouter.Post("/", h.createProblem)
		adminRouter.Patch("/{problemID}", h.updateProblem)
		adminRouter.Delete("/{problemID}", h.deleteProblem)
	})
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ProblemFilter{
		Difficulty: model.ProblemDifficulty(q.Get("difficulty")),
		Category:   q.Get("category"),
	}

	res, err := h.problemService.ListProblems(r.Context(), filter, common.PageFromQuery(q))
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProblemRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	problem, err := h.problemService.CreateProblem(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "problemID", "problem")
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	problem, err := h.problemService.GetProblem(r.Context(), id)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) updateProblem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "problemID", "problem")
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	var req service.UpdateProblemRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	problem, err := h.problemService.UpdateProblem(r.Context(), id, req)
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "problemID", "problem")
	if err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}

	if err := h.problemService.DeleteProblem(r.Context(), id); err != nil {
		common.RespondWithErr(w, h.log, err)
		return
	}
	respondNoContent(w)
}
