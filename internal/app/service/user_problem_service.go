package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"algo_tracker/internal/common"
	"algo_tracker/internal/domain/model"
	"algo_tracker/internal/domain/repository"
)

type UserProblemService struct {
	attemptRepo repository.UserProblemRepository
	problemRepo repository.ProblemRepository
	userRepo    repository.UserRepository
	tx          Transactor
	log         logrus.FieldLogger
}

func NewUserProblemService(
	attemptRepo repository.UserProblemRepository,
	problemRepo repository.ProblemRepository,
	userRepo repository.UserRepository,
	tx Transactor,
	log logrus.FieldLogger,
) *UserProblemService {
	return &UserProblemService{
		attemptRepo: attemptRepo,
		problemRepo: problemRepo,
		userRepo:    userRepo,
		tx:          tx,
		log:         log.WithField("component", "user_problem_service"),
	}
}

// CreateUserProblemRequest has no user_id: the owner always comes from
// the session.
type CreateUserProblemRequest struct {
	ProblemID     int64  `json:"problem_id"`
	DateAttempted string `json:"date_attempted"`
	Status        string `json:"status"`
	Notes         string `json:"notes"`
	NumAttempts   *int   `json:"num_attempts,omitempty"`
}

type UpdateUserProblemRequest struct {
	DateAttempted *string `json:"date_attempted,omitempty"`
	Status        *string `json:"status,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	NumAttempts   *int    `json:"num_attempts,omitempty"`
}

// attemptFields carries the rules shared by create and update. The notes
// and num_attempts bounds mirror model.MaxNotesLength and
// model.MaxNumAttempts.
type attemptFields struct {
	ProblemID     int64  `json:"problem_id" validate:"gt=0"`
	DateAttempted string `json:"date_attempted" validate:"required,isodate"`
	Status        string `json:"status" validate:"required,attempt_status"`
	Notes         string `json:"notes" validate:"max=10000"`
	NumAttempts   int    `json:"num_attempts" validate:"gte=1,lte=2147483647"`
}

func (f attemptFields) apply(up *model.UserProblem) {
	up.DateAttempted = f.DateAttempted
	up.Status = model.AttemptStatus(f.Status)
	up.Notes = f.Notes
	up.NumAttempts = f.NumAttempts
}

type ListUserProblemsResult struct {
	UserProblems []model.UserProblem `json:"user_problems"`
	common.PageInfo
}

func (s *UserProblemService) ListUserProblems(ctx context.Context, page common.Page) (*ListUserProblemsResult, error) {
	attempts, total, err := s.attemptRepo.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return &ListUserProblemsResult{UserProblems: attempts, PageInfo: common.NewPageInfo(page, total)}, nil
}

// ListForUser returns every attempt of userID, or ErrNotFound when the
// user does not exist.
func (s *UserProblemService) ListForUser(ctx context.Context, userID int64) ([]model.UserProblem, error) {
	if _, err := s.userRepo.FindByID(ctx, nil, userID); err != nil {
		return nil, err
	}
	return s.attemptRepo.ListByUser(ctx, userID)
}

func (s *UserProblemService) CreateUserProblem(ctx context.Context, userID int64, req CreateUserProblemRequest) (*model.UserProblem, error) {
	fields := attemptFields{
		ProblemID:     req.ProblemID,
		DateAttempted: strings.TrimSpace(req.DateAttempted),
		Status:        strings.TrimSpace(req.Status),
		Notes:         req.Notes,
		NumAttempts:   model.DefaultNumAttempts,
	}
	if req.NumAttempts != nil {
		fields.NumAttempts = *req.NumAttempts
	}
	if err := validateStruct(&fields); err != nil {
		return nil, err
	}

	up := &model.UserProblem{UserID: userID, ProblemID: req.ProblemID}
	fields.apply(up)

	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		problem, err := s.problemRepo.FindProblemByID(ctx, tx, req.ProblemID)
		if err != nil {
			return err
		}

		_, err = s.attemptRepo.Find(ctx, tx, userID, req.ProblemID)
		switch {
		case err == nil:
			return common.Errorf("attempt already recorded for this problem: %w", common.ErrConflict)
		case !errors.Is(err, common.ErrNotFound):
			return err
		}

		if err := s.attemptRepo.Create(ctx, tx, up); err != nil {
			return err
		}
		up.Problem = problem
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "problem_id": req.ProblemID}).Info("attempt recorded")
	return up, nil
}

func (s *UserProblemService) GetUserProblem(ctx context.Context, userID, problemID int64) (*model.UserProblem, error) {
	return s.attemptRepo.Find(ctx, nil, userID, problemID)
}

func (s *UserProblemService) UpdateUserProblem(ctx context.Context, userID, problemID int64, req UpdateUserProblemRequest) (*model.UserProblem, error) {
	var up *model.UserProblem
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.attemptRepo.Find(ctx, tx, userID, problemID)
		if err != nil {
			return err
		}

		fields := attemptFields{
			ProblemID:     problemID,
			DateAttempted: existing.DateAttempted,
			Status:        string(existing.Status),
			Notes:         existing.Notes,
			NumAttempts:   existing.NumAttempts,
		}
		if req.DateAttempted != nil {
			fields.DateAttempted = strings.TrimSpace(*req.DateAttempted)
		}
		if req.Status != nil {
			fields.Status = strings.TrimSpace(*req.Status)
		}
		if req.Notes != nil {
			fields.Notes = *req.Notes
		}
		if req.NumAttempts != nil {
			fields.NumAttempts = *req.NumAttempts
		}
		if err := validateStruct(&fields); err != nil {
			return err
		}

		fields.apply(existing)
		if err := s.attemptRepo.Update(ctx, tx, existing); err != nil {
			return err
		}
		up = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return up, nil
}

func (s *UserProblemService) DeleteUserProblem(ctx context.Context, userID, problemID int64) error {
	return s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return s.attemptRepo.Delete(ctx, tx, userID, problemID)
	})
}
