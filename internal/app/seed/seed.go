// Package seed resets the database to a small, known data set.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"algo_tracker/internal/common/security"
	"algo_tracker/internal/domain/model"
	"algo_tracker/internal/domain/repository"
	"algo_tracker/internal/platform/database"
)

//go:embed seed.yaml
var defaultData []byte

const truncateAll = "TRUNCATE user_problems, problems, users RESTART IDENTITY CASCADE"

type Data struct {
	Users    []User    `yaml:"users"`
	Problems []Problem `yaml:"problems"`
	Attempts []Attempt `yaml:"attempts"`
}

type User struct {
	Email         string `yaml:"email"`
	UserName      string `yaml:"user_name"`
	Picture       string `yaml:"picture"`
	OAuthProvider string `yaml:"oauth_provider"`
	OAuthID       string `yaml:"oauth_id"`
	IsAdmin       bool   `yaml:"is_admin"`
}

type Problem struct {
	Name       string `yaml:"name"`
	Link       string `yaml:"link"`
	Difficulty string `yaml:"difficulty"`
	Category   string `yaml:"category"`
}

// Attempt refers to its user by email and to its problem by name.
type Attempt struct {
	User          string `yaml:"user"`
	Problem       string `yaml:"problem"`
	DateAttempted string `yaml:"date_attempted"`
	Status        string `yaml:"status"`
	Notes         string `yaml:"notes"`
	NumAttempts   int    `yaml:"num_attempts"`
}

// Admin is an optional password account created alongside the data set.
type Admin struct {
	Email    string
	Password string
}

// Default returns the embedded data set.
func Default() (*Data, error) {
	return Parse(defaultData)
}

// Parse decodes raw and checks every reference and enum in it.
func Parse(raw []byte) (*Data, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}

	users := make(map[string]bool, len(data.Users))
	for i, u := range data.Users {
		email := model.NormalizeEmail(u.Email)
		if !model.ValidEmail(email) {
			return nil, fmt.Errorf("seed: user %d: invalid email %q", i, u.Email)
		}
		data.Users[i].Email = email
		users[email] = true
	}

	problems := make(map[string]bool, len(data.Problems))
	for i, p := range data.Problems {
		if p.Name == "" || p.Link == "" || p.Category == "" {
			return nil, fmt.Errorf("seed: problem %d: name, link and category are required", i)
		}
		if !model.ProblemDifficulty(p.Difficulty).IsValid() {
			return nil, fmt.Errorf("seed: problem %q: unknown difficulty %q", p.Name, p.Difficulty)
		}
		problems[p.Name] = true
	}

	for i, a := range data.Attempts {
		a.User = model.NormalizeEmail(a.User)
		if !users[a.User] {
			return nil, fmt.Errorf("seed: attempt %d: unknown user %q", i, a.User)
		}
		if !problems[a.Problem] {
			return nil, fmt.Errorf("seed: attempt %d: unknown problem %q", i, a.Problem)
		}
		if !model.AttemptStatus(a.Status).IsValid() {
			return nil, fmt.Errorf("seed: attempt %d: unknown status %q", i, a.Status)
		}
		if a.DateAttempted != "" && !model.ValidDate(a.DateAttempted) {
			return nil, fmt.Errorf("seed: attempt %d: invalid date %q", i, a.DateAttempted)
		}
		if a.NumAttempts == 0 {
			a.NumAttempts = model.DefaultNumAttempts
		}
		if a.NumAttempts < 0 {
			return nil, fmt.Errorf("seed: attempt %d: num_attempts must be positive", i)
		}
		data.Attempts[i] = a
	}
	return &data, nil
}

type Seeder struct {
	tx       *database.TxManager
	users    repository.UserRepository
	problems repository.ProblemRepository
	attempts repository.UserProblemRepository
	log      logrus.FieldLogger
	now      func() time.Time
}

func New(db *sqlx.DB, log logrus.FieldLogger) *Seeder {
	return &Seeder{
		tx:       database.NewTxManager(db),
		users:    repository.NewPgUserRepository(db),
		problems: repository.NewPgProblemRepository(db),
		attempts: repository.NewPgUserProblemRepository(db),
		log:      log.WithField("component", "seed"),
		now:      time.Now,
	}
}

// Run wipes all three tables and loads data in one transaction. admin may
// be nil.
func (s *Seeder) Run(ctx context.Context, data *Data, admin *Admin) error {
	var adminUser *model.User
	if admin != nil && admin.Email != "" {
		u, err := newAdmin(admin)
		if err != nil {
			return err
		}
		adminUser = u
	}

	return s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, truncateAll); err != nil {
			return fmt.Errorf("seed: truncate: %w", err)
		}

		userIDs := make(map[string]int64, len(data.Users))
		for _, su := range data.Users {
			u := &model.User{
				Email:    su.Email,
				UserName: su.UserName,
				Picture:  su.Picture,
				IsAdmin:  su.IsAdmin,
			}
			if su.OAuthProvider != "" {
				u.OAuthProvider, u.OAuthID = &su.OAuthProvider, &su.OAuthID
			}
			if err := s.users.Create(ctx, tx, u); err != nil {
				return fmt.Errorf("seed: user %s: %w", su.Email, err)
			}
			userIDs[u.Email] = u.ID
		}
		if adminUser != nil {
			if err := s.users.Create(ctx, tx, adminUser); err != nil {
				return fmt.Errorf("seed: admin %s: %w", adminUser.Email, err)
			}
		}

		problemIDs := make(map[string]int64, len(data.Problems))
		for _, sp := range data.Problems {
			p := &model.Problem{
				ProblemName: sp.Name,
				ProblemLink: sp.Link,
				Slug:        slug.Make(sp.Name),
				Difficulty:  model.ProblemDifficulty(sp.Difficulty),
				Category:    sp.Category,
			}
			if err := s.problems.CreateProblem(ctx, tx, p); err != nil {
				return fmt.Errorf("seed: problem %s: %w", sp.Name, err)
			}
			problemIDs[p.ProblemName] = p.ID
		}

		today := s.now().Format(time.DateOnly)
		for _, sa := range data.Attempts {
			up := &model.UserProblem{
				UserID:        userIDs[sa.User],
				ProblemID:     problemIDs[sa.Problem],
				DateAttempted: sa.DateAttempted,
				Status:        model.AttemptStatus(sa.Status),
				Notes:         sa.Notes,
				NumAttempts:   sa.NumAttempts,
			}
			if up.DateAttempted == "" {
				up.DateAttempted = today
			}
			if err := s.attempts.Create(ctx, tx, up); err != nil {
				return fmt.Errorf("seed: attempt %s/%s: %w", sa.User, sa.Problem, err)
			}
		}

		s.log.WithFields(logrus.Fields{
			"users":    len(userIDs),
			"problems": len(problemIDs),
			"attempts": len(data.Attempts),
			"admin":    adminUser != nil,
		}).Info("seed completed")
		return nil
	})
}

func newAdmin(admin *Admin) (*model.User, error) {
	email := model.NormalizeEmail(admin.Email)
	if !model.ValidEmail(email) {
		return nil, fmt.Errorf("seed: invalid admin email %q", admin.Email)
	}
	if err := security.ValidatePasswordPolicy(admin.Password); err != nil {
		return nil, fmt.Errorf("seed: admin password: %w", err)
	}
	hash, err := security.HashPassword(admin.Password)
	if err != nil {
		return nil, err
	}
	return &model.User{
		Email:        email,
		UserName:     model.LocalPart(email),
		PasswordHash: &hash,
		IsAdmin:      true,
	}, nil
}
