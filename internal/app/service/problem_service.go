package service

import (
	"context"
	"strings"

	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"algo_tracker/internal/common"
	"algo_tracker/internal/domain/model"
	"algo_tracker/internal/domain/repository"
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
	tx          Transactor
	log         logrus.FieldLogger
}

func NewProblemService(problemRepo repository.ProblemRepository, tx Transactor, log logrus.FieldLogger) *ProblemService {
	return &ProblemService{
		problemRepo: problemRepo,
		tx:          tx,
		log:         log.WithField("component", "problem_service"),
	}
}

type CreateProblemRequest struct {
	ProblemName string `json:"problem_name" validate:"required"`
	ProblemLink string `json:"problem_link" validate:"required"`
	Difficulty  string `json:"difficulty" validate:"required,difficulty"`
	Category    string `json:"category" validate:"required"`
}

func (r *CreateProblemRequest) trim() {
	r.ProblemName = strings.TrimSpace(r.ProblemName)
	r.ProblemLink = strings.TrimSpace(r.ProblemLink)
	r.Difficulty = strings.TrimSpace(r.Difficulty)
	r.Category = strings.TrimSpace(r.Category)
}

// UpdateProblemRequest lists the only fields a PATCH may touch.
type UpdateProblemRequest struct {
	ProblemName *string `json:"problem_name,omitempty"`
	ProblemLink *string `json:"problem_link,omitempty"`
	Difficulty  *string `json:"difficulty,omitempty"`
	Category    *string `json:"category,omitempty"`
}

type ListProblemsResult struct {
	Problems []model.Problem `json:"problems"`
	common.PageInfo
}

func (s *ProblemService) CreateProblem(ctx context.Context, req CreateProblemRequest) (*model.Problem, error) {
	req.trim()
	if err := validateStruct(&req); err != nil {
		return nil, err
	}

	problem := &model.Problem{
		ProblemName: req.ProblemName,
		ProblemLink: req.ProblemLink,
		Slug:        slug.Make(req.ProblemName),
		Difficulty:  model.ProblemDifficulty(req.Difficulty),
		Category:    req.Category,
	}

	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return s.problemRepo.CreateProblem(ctx, tx, problem)
	})
	if err != nil {
		return nil, common.Errorf("failed to create problem: %w", err)
	}

	s.log.WithField("problem_id", problem.ID).Info("problem created")
	return problem, nil
}

func (s *ProblemService) GetProblem(ctx context.Context, id int64) (*model.Problem, error) {
	return s.problemRepo.FindProblemByID(ctx, nil, id)
}

func (s *ProblemService) ListProblems(ctx context.Context, filter model.ProblemFilter, page common.Page) (*ListProblemsResult, error) {
	problems, total, err := s.problemRepo.ListProblems(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &ListProblemsResult{Problems: problems, PageInfo: common.NewPageInfo(page, total)}, nil
}

// UpdateProblem applies the present fields and re-validates the result
// with the creation rules. A rename re-derives the slug.
func (s *ProblemService) UpdateProblem(ctx context.Context, id int64, req UpdateProblemRequest) (*model.Problem, error) {
	var problem *model.Problem
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.problemRepo.FindProblemByID(ctx, tx, id)
		if err != nil {
			return err
		}

		next := CreateProblemRequest{
			ProblemName: existing.ProblemName,
			ProblemLink: existing.ProblemLink,
			Difficulty:  string(existing.Difficulty),
			Category:    existing.Category,
		}
		if req.ProblemName != nil {
			next.ProblemName = *req.ProblemName
		}
		if req.ProblemLink != nil {
			next.ProblemLink = *req.ProblemLink
		}
		if req.Difficulty != nil {
			next.Difficulty = *req.Difficulty
		}
		if req.Category != nil {
			next.Category = *req.Category
		}
		next.trim()
		if err := validateStruct(&next); err != nil {
			return err
		}

		if next.ProblemName != existing.ProblemName {
			existing.Slug = slug.Make(next.ProblemName)
		}
		existing.ProblemName = next.ProblemName
		existing.ProblemLink = next.ProblemLink
		existing.Difficulty = model.ProblemDifficulty(next.Difficulty)
		existing.Category = next.Category

		if err := s.problemRepo.UpdateProblem(ctx, tx, existing); err != nil {
			return err
		}
		problem = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return problem, nil
}

func (s *ProblemService) DeleteProblem(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return s.problemRepo.DeleteProblem(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.log.WithField("problem_id", id).Info("problem deleted")
	return nil
}
