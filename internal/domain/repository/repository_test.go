package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"algo_tracker/internal/common"
	"algo_tracker/internal/domain/model"
)

var (
	problemCols = []string{"id", "problem_name", "problem_link", "slug", "difficulty", "category", "created_at", "updated_at"}
	userCols    = []string{"id", "email", "user_name", "picture", "password_hash", "oauth_provider", "oauth_id", "is_admin", "created_at", "updated_at"}
	attemptCols = []string{
		"user_id", "problem_id", "date_attempted", "status", "notes", "num_attempts", "created_at", "updated_at",
		"problem.id", "problem.problem_name", "problem.problem_link", "problem.slug",
		"problem.difficulty", "problem.category", "problem.created_at", "problem.updated_at",
	}
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mock
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)
	now := time.Now()

	hash := "bcrypt-hash"
	user := &model.User{Email: "jane@example.com", UserName: "jane", PasswordHash: &hash}

	mock.ExpectQuery(`INSERT INTO users \(email,user_name,picture,password_hash,oauth_provider,oauth_id,is_admin\)`).
		WithArgs("jane@example.com", "jane", "", "bcrypt-hash", nil, nil, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))

	require.NoError(t, repo.Create(context.Background(), nil, user))
	assert.Equal(t, int64(11), user.ID)
	assert.Equal(t, now, user.CreatedAt)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), nil, &model.User{Email: "jane@example.com"})
	require.ErrorIs(t, err, common.ErrConflict)
	assert.Contains(t, err.Error(), "email already registered")
}

func TestUserRepository_FindByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, email, .* FROM users WHERE email = \$1`).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(3), "jane@example.com", "jane", "", "hash", nil, nil, true, now, now))

	user, err := repo.FindByEmail(context.Background(), nil, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.True(t, user.IsAdmin)
	require.NotNil(t, user.PasswordHash)
	assert.Equal(t, "hash", *user.PasswordHash)
	assert.Nil(t, user.OAuthID)
}

func TestUserRepository_FindByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), nil, 99)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUserRepository_UsesTransaction(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.Delete(context.Background(), tx, 4))
	require.NoError(t, tx.Commit())
}

func TestUserRepository_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), nil, 4)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUserRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT id, email, .* FROM users ORDER BY id LIMIT 2 OFFSET 2`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(3), "c@example.com", "c", "", nil, "google", "sub-3", false, now, now))

	users, total, err := repo.List(context.Background(), common.Page{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, users, 1)
	require.NotNil(t, users[0].OAuthProvider)
	assert.Equal(t, "google", *users[0].OAuthProvider)
}

func TestUserRepository_Update(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(`UPDATE users SET email = \$1, user_name = \$2, picture = \$3, is_admin = \$4, updated_at = CURRENT_TIMESTAMP WHERE id = \$5 RETURNING updated_at`).
		WithArgs("jane@example.com", "Jane D", "pic", false, int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

	user := &model.User{ID: 3, Email: "jane@example.com", UserName: "Jane D", Picture: "pic"}
	require.NoError(t, repo.Update(context.Background(), nil, user))
	assert.Equal(t, now, user.UpdatedAt)
}

func TestProblemRepository_CreateAndFind(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO problems \(problem_name,problem_link,slug,difficulty,category\) VALUES \(\$1,\$2,\$3,\$4,\$5\) RETURNING id`).
		WithArgs("Two Sum", "https://leetcode.com/problems/two-sum", "two-sum", "Easy", "Arrays").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))
	mock.ExpectQuery(`SELECT id, problem_name, .* FROM problems WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(problemCols).
			AddRow(int64(1), "Two Sum", "https://leetcode.com/problems/two-sum", "two-sum", "Easy", "Arrays", now, now))

	p := &model.Problem{
		ProblemName: "Two Sum",
		ProblemLink: "https://leetcode.com/problems/two-sum",
		Slug:        "two-sum",
		Difficulty:  model.DifficultyEasy,
		Category:    "Arrays",
	}
	require.NoError(t, repo.CreateProblem(context.Background(), nil, p))
	assert.Equal(t, int64(1), p.ID)

	got, err := repo.FindProblemByID(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, p.ProblemName, got.ProblemName)
	assert.Equal(t, model.DifficultyEasy, got.Difficulty)
}

func TestProblemRepository_ListWithFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM problems WHERE category = \$1 AND difficulty = \$2`).
		WithArgs("Graphs", "Hard").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT id, problem_name, .* FROM problems WHERE category = \$1 AND difficulty = \$2 ORDER BY id LIMIT 100 OFFSET 0`).
		WithArgs("Graphs", "Hard").
		WillReturnRows(sqlmock.NewRows(problemCols).
			AddRow(int64(5), "Word Ladder", "https://x", "word-ladder", "Hard", "Graphs", now, now))

	problems, total, err := repo.ListProblems(context.Background(),
		model.ProblemFilter{Difficulty: model.DifficultyHard, Category: "Graphs"},
		common.Page{Page: 1, PerPage: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, problems, 1)
	assert.Equal(t, "word-ladder", problems[0].Slug)
}

func TestProblemRepository_ListWithoutFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM problems`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`FROM problems ORDER BY id LIMIT 50 OFFSET 0`).
		WillReturnRows(sqlmock.NewRows(problemCols))

	problems, total, err := repo.ListProblems(context.Background(), model.ProblemFilter{}, common.Page{Page: 1, PerPage: 50})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, problems)
	assert.Empty(t, problems)
}

func TestProblemRepository_UpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)

	mock.ExpectQuery(`UPDATE problems SET`).WillReturnError(sql.ErrNoRows)

	err := repo.UpdateProblem(context.Background(), nil, &model.Problem{ID: 8, Difficulty: model.DifficultyEasy})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestProblemRepository_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)

	mock.ExpectExec(`DELETE FROM problems WHERE id = \$1`).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM problems WHERE id = \$1`).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteProblem(context.Background(), nil, 2))
	assert.ErrorIs(t, repo.DeleteProblem(context.Background(), nil, 2), common.ErrNotFound)
}

func TestUserProblemRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserProblemRepository(db)

	mock.ExpectQuery(`INSERT INTO user_problems`).
		WithArgs(int64(1), int64(2), "2024-05-01", "Attempted", "", 1).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "user_problems_pkey"})

	err := repo.Create(context.Background(), nil, &model.UserProblem{
		UserID: 1, ProblemID: 2, DateAttempted: "2024-05-01", Status: model.StatusAttempted, NumAttempts: 1,
	})
	require.ErrorIs(t, err, common.ErrConflict)
	assert.Contains(t, err.Error(), "attempt already recorded")
}

func TestUserProblemRepository_CreateMissingProblem(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserProblemRepository(db)

	mock.ExpectQuery(`INSERT INTO user_problems`).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "user_problems_problem_id_fkey"})

	err := repo.Create(context.Background(), nil, &model.UserProblem{UserID: 1, ProblemID: 404, Status: model.StatusAttempted})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUserProblemRepository_FindEmbedsProblem(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserProblemRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM user_problems up JOIN problems p ON p.id = up.problem_id WHERE up.problem_id = \$1 AND up.user_id = \$2`).
		WithArgs(int64(2), int64(1)).
		WillReturnRows(sqlmock.NewRows(attemptCols).AddRow(
			int64(1), int64(2), "2024-05-01", "Completed", "used a hash map", 3, now, now,
			int64(2), "Two Sum", "https://x", "two-sum", "Easy", "Arrays", now, now,
		))

	up, err := repo.Find(context.Background(), nil, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, up.Status)
	assert.Equal(t, 3, up.NumAttempts)
	require.NotNil(t, up.Problem)
	assert.Equal(t, "Two Sum", up.Problem.ProblemName)
}

func TestUserProblemRepository_ListByUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserProblemRepository(db)

	mock.ExpectQuery(`WHERE up.user_id = \$1 ORDER BY up.problem_id`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(attemptCols))

	attempts, err := repo.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestUserProblemRepository_UpdateAndDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserProblemRepository(db)
	now := time.Now()

	mock.ExpectQuery(`UPDATE user_problems SET date_attempted = \$1, status = \$2, notes = \$3, num_attempts = \$4, updated_at = CURRENT_TIMESTAMP WHERE problem_id = \$5 AND user_id = \$6`).
		WithArgs("2024-06-01", "Completed", "done", 2, int64(2), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
	mock.ExpectExec(`DELETE FROM user_problems WHERE user_id = \$1 AND problem_id = \$2`).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	up := &model.UserProblem{UserID: 1, ProblemID: 2, DateAttempted: "2024-06-01", Status: model.StatusCompleted, Notes: "done", NumAttempts: 2}
	require.NoError(t, repo.Update(context.Background(), nil, up))
	assert.Equal(t, now, up.UpdatedAt)
	require.NoError(t, repo.Delete(context.Background(), nil, 1, 2))
}
