package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"algo_tracker/internal/common"
	"algo_tracker/internal/common/security"
	"algo_tracker/internal/domain/model"
	"algo_tracker/internal/domain/repository"
)

var errInvalidCredentials = fmt.Errorf("invalid email or password: %w", common.ErrUnauthorized)

type AuthService struct {
	userRepo repository.UserRepository
	tx       Transactor
	log      logrus.FieldLogger
}

func NewAuthService(userRepo repository.UserRepository, tx Transactor, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tx:       tx,
		log:      log.WithField("component", "auth_service"),
	}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email_address"`
	Password string `json:"password" validate:"required"`
	UserName string `json:"user_name"`
	Picture  string `json:"picture"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// GoogleIdentity is the verified subset of an ID token used to sign in.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Register creates a password account. When the insert loses a race (or
// repeats an earlier registration) and the stored hash accepts the same
// password, the existing account is returned instead of an error.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	req.Email = model.NormalizeEmail(req.Email)
	req.UserName = strings.TrimSpace(req.UserName)
	if err := validateStruct(&req); err != nil {
		return nil, err
	}
	if err := security.ValidatePasswordPolicy(req.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userName := req.UserName
	if userName == "" {
		userName = model.LocalPart(req.Email)
	}
	user := &model.User{
		Email:        req.Email,
		UserName:     userName,
		Picture:      req.Picture,
		PasswordHash: &hashedPassword,
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return s.userRepo.Create(ctx, tx, user)
	})
	if err == nil {
		s.log.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("user registered")
		return user, nil
	}
	if !errors.Is(err, common.ErrConflict) {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	existing, ferr := s.userRepo.FindByEmail(ctx, nil, req.Email)
	if ferr != nil {
		if errors.Is(ferr, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to re-read user: %w", ferr)
	}
	if existing.HasPassword() && security.CheckPasswordHash(req.Password, *existing.PasswordHash) {
		s.log.WithFields(logrus.Fields{"user_id": existing.ID, "email": existing.Email}).Info("duplicate registration resolved to existing user")
		return existing, nil
	}
	return nil, fmt.Errorf("email already registered: %w", common.ErrConflict)
}

// Login checks an email/password pair. Unknown emails, OAuth-only accounts
// and wrong passwords all yield the same error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*model.User, error) {
	if err := validateStruct(&req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, nil, model.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.HasPassword() || !security.CheckPasswordHash(req.Password, *user.PasswordHash) {
		return nil, errInvalidCredentials
	}
	return user, nil
}

// LoginWithGoogle finds the account for a verified Google identity by
// email, creating it on first sign-in.
func (s *AuthService) LoginWithGoogle(ctx context.Context, id GoogleIdentity) (*model.User, error) {
	email := model.NormalizeEmail(id.Email)
	if !model.ValidEmail(email) || id.Subject == "" {
		return nil, fmt.Errorf("identity token lacks a usable email: %w", common.ErrBadRequest)
	}

	user, err := s.userRepo.FindByEmail(ctx, nil, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	userName := strings.TrimSpace(id.Name)
	if userName == "" {
		userName = model.LocalPart(email)
	}
	provider, subject := model.ProviderGoogle, id.Subject
	user = &model.User{
		Email:         email,
		UserName:      userName,
		Picture:       id.Picture,
		OAuthProvider: &provider,
		OAuthID:       &subject,
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return s.userRepo.Create(ctx, tx, user)
	})
	if err == nil {
		s.log.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("user created from google sign-in")
		return user, nil
	}
	if !errors.Is(err, common.ErrConflict) {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// A concurrent callback created the row first.
	user, ferr := s.userRepo.FindByEmail(ctx, nil, email)
	if ferr != nil {
		if errors.Is(ferr, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to re-read user: %w", ferr)
	}
	return user, nil
}

// CurrentUser resolves a session's user id.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	return s.userRepo.FindByID(ctx, nil, userID)
}
