package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"algo_tracker/internal/common"
	"algo_tracker/internal/domain/model"
)

// Attempt rows come back joined with their problem; the aliased columns
// land in UserProblem.Problem.
var userProblemSelect = psql.Select(
	"up.user_id", "up.problem_id", "up.date_attempted", "up.status", "up.notes",
	"up.num_attempts", "up.created_at", "up.updated_at",
	`p.id AS "problem.id"`,
	`p.problem_name AS "problem.problem_name"`,
	`p.problem_link AS "problem.problem_link"`,
	`p.slug AS "problem.slug"`,
	`p.difficulty AS "problem.difficulty"`,
	`p.category AS "problem.category"`,
	`p.created_at AS "problem.created_at"`,
	`p.updated_at AS "problem.updated_at"`,
).From("user_problems up").Join("problems p ON p.id = up.problem_id")

var userProblemConflicts = map[string]string{
	"user_problems_pkey": "attempt already recorded for this problem",
}

type UserProblemRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, up *model.UserProblem) error
	Find(ctx context.Context, tx *sqlx.Tx, userID, problemID int64) (*model.UserProblem, error)
	List(ctx context.Context, page common.Page) ([]model.UserProblem, int, error)
	ListByUser(ctx context.Context, userID int64) ([]model.UserProblem, error)
	Update(ctx context.Context, tx *sqlx.Tx, up *model.UserProblem) error
	Delete(ctx context.Context, tx *sqlx.Tx, userID, problemID int64) error
}

type pgUserProblemRepository struct {
	db *sqlx.DB
}

func NewPgUserProblemRepository(db *sqlx.DB) UserProblemRepository {
	return &pgUserProblemRepository{db: db}
}

func (r *pgUserProblemRepository) Create(ctx context.Context, tx *sqlx.Tx, up *model.UserProblem) error {
	query, args, err := psql.Insert("user_problems").
		Columns("user_id", "problem_id", "date_attempted", "status", "notes", "num_attempts").
		Values(up.UserID, up.ProblemID, up.DateAttempted, string(up.Status), up.Notes, up.NumAttempts).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("pgUserProblemRepository.Create build: %w", err)
	}

	err = ext(r.db, tx).QueryRowxContext(ctx, query, args...).Scan(&up.CreatedAt, &up.UpdatedAt)
	return translate("attempt", "pgUserProblemRepository.Create", err, userProblemConflicts)
}

func (r *pgUserProblemRepository) Find(ctx context.Context, tx *sqlx.Tx, userID, problemID int64) (*model.UserProblem, error) {
	query, args, err := userProblemSelect.
		Where(squirrel.Eq{"up.user_id": userID, "up.problem_id": problemID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("pgUserProblemRepository.Find build: %w", err)
	}

	up := &model.UserProblem{}
	if err := sqlx.GetContext(ctx, ext(r.db, tx), up, query, args...); err != nil {
		return nil, translate("attempt", "pgUserProblemRepository.Find", err, nil)
	}
	return up, nil
}

func (r *pgUserProblemRepository) List(ctx context.Context, page common.Page) ([]model.UserProblem, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM user_problems"); err != nil {
		return nil, 0, fmt.Errorf("pgUserProblemRepository.List count: %w", err)
	}

	query, args, err := userProblemSelect.
		OrderBy("up.user_id", "up.problem_id").
		Limit(page.Limit()).
		Offset(page.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("pgUserProblemRepository.List build: %w", err)
	}

	attempts := []model.UserProblem{}
	if err := r.db.SelectContext(ctx, &attempts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("pgUserProblemRepository.List query: %w", err)
	}
	return attempts, total, nil
}

func (r *pgUserProblemRepository) ListByUser(ctx context.Context, userID int64) ([]model.UserProblem, error) {
	query, args, err := userProblemSelect.
		Where(squirrel.Eq{"up.user_id": userID}).
		OrderBy("up.problem_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("pgUserProblemRepository.ListByUser build: %w", err)
	}

	attempts := []model.UserProblem{}
	if err := r.db.SelectContext(ctx, &attempts, query, args...); err != nil {
		return nil, fmt.Errorf("pgUserProblemRepository.ListByUser query: %w", err)
	}
	return attempts, nil
}

func (r *pgUserProblemRepository) Update(ctx context.Context, tx *sqlx.Tx, up *model.UserProblem) error {
	query, args, err := psql.Update("user_problems").
		Set("date_attempted", up.DateAttempted).
		Set("status", string(up.Status)).
		Set("notes", up.Notes).
		Set("num_attempts", up.NumAttempts).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"user_id": up.UserID, "problem_id": up.ProblemID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("pgUserProblemRepository.Update build: %w", err)
	}

	err = ext(r.db, tx).QueryRowxContext(ctx, query, args...).Scan(&up.UpdatedAt)
	return translate("attempt", "pgUserProblemRepository.Update", err, nil)
}

func (r *pgUserProblemRepository) Delete(ctx context.Context, tx *sqlx.Tx, userID, problemID int64) error {
	res, err := ext(r.db, tx).ExecContext(ctx,
		"DELETE FROM user_problems WHERE user_id = $1 AND problem_id = $2", userID, problemID)
	if err != nil {
		return translate("attempt", "pgUserProblemRepository.Delete", err, nil)
	}
	return requireAffected("attempt", "pgUserProblemRepository.Delete", res)
}
