package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"algo_tracker/internal/common"
	"algo_tracker/internal/domain/model"
	"algo_tracker/internal/domain/repository"
)

type UserService struct {
	userRepo repository.UserRepository
	tx       Transactor
	log      logrus.FieldLogger
}

func NewUserService(userRepo repository.UserRepository, tx Transactor, log logrus.FieldLogger) *UserService {
	return &UserService{
		userRepo: userRepo,
		tx:       tx,
		log:      log.WithField("component", "user_service"),
	}
}

type CreateUserRequest struct {
	Email         string `json:"email" validate:"required,email_address"`
	UserName      string `json:"user_name" validate:"required"`
	Picture       string `json:"picture"`
	OAuthProvider string `json:"oauth_provider" validate:"required"`
	OAuthID       string `json:"oauth_id" validate:"required"`
	IsAdmin       bool   `json:"is_admin"`
}

// UpdateUserRequest holds every field a PATCH may name. Email and IsAdmin
// are honoured for admins only.
type UpdateUserRequest struct {
	UserName *string `json:"user_name,omitempty"`
	Picture  *string `json:"picture,omitempty"`
	Email    *string `json:"email,omitempty"`
	IsAdmin  *bool   `json:"is_admin,omitempty"`
}

type userFields struct {
	Email    string `json:"email" validate:"required,email_address"`
	UserName string `json:"user_name" validate:"required"`
}

type ListUsersResult struct {
	Users []model.User `json:"users"`
	common.PageInfo
}

func (s *UserService) ListUsers(ctx context.Context, page common.Page) (*ListUsersResult, error) {
	users, total, err := s.userRepo.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return &ListUsersResult{Users: users, PageInfo: common.NewPageInfo(page, total)}, nil
}

func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	req.Email = model.NormalizeEmail(req.Email)
	req.UserName = strings.TrimSpace(req.UserName)
	req.OAuthProvider = strings.TrimSpace(req.OAuthProvider)
	req.OAuthID = strings.TrimSpace(req.OAuthID)
	if err := validateStruct(&req); err != nil {
		return nil, err
	}

	user := &model.User{
		Email:         req.Email,
		UserName:      req.UserName,
		Picture:       req.Picture,
		OAuthProvider: &req.OAuthProvider,
		OAuthID:       &req.OAuthID,
		IsAdmin:       req.IsAdmin,
	}
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return s.userRepo.Create(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("user created")
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.userRepo.FindByID(ctx, nil, id)
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest, asAdmin bool) (*model.User, error) {
	var user *model.User
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.userRepo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if req.UserName != nil {
			existing.UserName = strings.TrimSpace(*req.UserName)
		}
		if req.Picture != nil {
			existing.Picture = *req.Picture
		}
		if asAdmin {
			if req.Email != nil {
				existing.Email = model.NormalizeEmail(*req.Email)
			}
			if req.IsAdmin != nil {
				existing.IsAdmin = *req.IsAdmin
			}
		}

		if err := validateStruct(&userFields{Email: existing.Email, UserName: existing.UserName}); err != nil {
			return err
		}
		if err := s.userRepo.Update(ctx, tx, existing); err != nil {
			return err
		}
		user = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the account and, through the foreign keys, its attempts.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return s.userRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("user deleted")
	return nil
}
