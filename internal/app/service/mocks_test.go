package service

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"algo_tracker/internal/common"
	"algo_tracker/internal/domain/model"
)

// fakeTx runs the unit of work without a database.
type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.User, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, tx *sqlx.Tx, email string) (*model.User, error) {
	args := m.Called(ctx, tx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, page common.Page) ([]model.User, int, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.User), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) Update(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

// MockProblemRepository is a mock implementation of ProblemRepository.
type MockProblemRepository struct {
	mock.Mock
}

func (m *MockProblemRepository) CreateProblem(ctx context.Context, tx *sqlx.Tx, problem *model.Problem) error {
	args := m.Called(ctx, tx, problem)
	return args.Error(0)
}

func (m *MockProblemRepository) UpdateProblem(ctx context.Context, tx *sqlx.Tx, problem *model.Problem) error {
	args := m.Called(ctx, tx, problem)
	return args.Error(0)
}

func (m *MockProblemRepository) DeleteProblem(ctx context.Context, tx *sqlx.Tx, id int64) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockProblemRepository) FindProblemByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Problem, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Problem), args.Error(1)
}

func (m *MockProblemRepository) ListProblems(ctx context.Context, filter model.ProblemFilter, page common.Page) ([]model.Problem, int, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Problem), args.Int(1), args.Error(2)
}

// MockUserProblemRepository is a mock implementation of UserProblemRepository.
type MockUserProblemRepository struct {
	mock.Mock
}

func (m *MockUserProblemRepository) Create(ctx context.Context, tx *sqlx.Tx, up *model.UserProblem) error {
	args := m.Called(ctx, tx, up)
	return args.Error(0)
}

func (m *MockUserProblemRepository) Find(ctx context.Context, tx *sqlx.Tx, userID, problemID int64) (*model.UserProblem, error) {
	args := m.Called(ctx, tx, userID, problemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProblem), args.Error(1)
}

func (m *MockUserProblemRepository) List(ctx context.Context, page common.Page) ([]model.UserProblem, int, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.UserProblem), args.Int(1), args.Error(2)
}

func (m *MockUserProblemRepository) ListByUser(ctx context.Context, userID int64) ([]model.UserProblem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserProblem), args.Error(1)
}

func (m *MockUserProblemRepository) Update(ctx context.Context, tx *sqlx.Tx, up *model.UserProblem) error {
	args := m.Called(ctx, tx, up)
	return args.Error(0)
}

func (m *MockUserProblemRepository) Delete(ctx context.Context, tx *sqlx.Tx, userID, problemID int64) error {
	args := m.Called(ctx, tx, userID, problemID)
	return args.Error(0)
}

// memUserRepository is a goroutine-safe in-memory UserRepository with a
// unique email index.
type memUserRepository struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]model.User
}

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{byID: map[int64]model.User{}}
}

func (r *memUserRepository) Create(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == user.Email {
			return common.Errorf("email already registered: %w", common.ErrConflict)
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.byID[user.ID] = *user
	return nil
}

func (r *memUserRepository) FindByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepository) FindByEmail(ctx context.Context, tx *sqlx.Tx, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memUserRepository) List(ctx context.Context, page common.Page) ([]model.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]model.User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, u)
	}
	return users, len(users), nil
}

func (r *memUserRepository) Update(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return common.ErrNotFound
	}
	r.byID[user.ID] = *user
	return nil
}

func (r *memUserRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
