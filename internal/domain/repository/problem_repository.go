package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"algo_tracker/internal/common"
	"algo_tracker/internal/domain/model"
)

const problemColumns = "id, problem_name, problem_link, slug, difficulty, category, created_at, updated_at"

type ProblemRepository interface {
	CreateProblem(ctx context.Context, tx *sqlx.Tx, problem *model.Problem) error
	UpdateProblem(ctx context.Context, tx *sqlx.Tx, problem *model.Problem) error
	DeleteProblem(ctx context.Context, tx *sqlx.Tx, id int64) error
	FindProblemByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Problem, error)
	ListProblems(ctx context.Context, filter model.ProblemFilter, page common.Page) ([]model.Problem, int, error)
}

type pgProblemRepository struct {
	db *sqlx.DB
}

func NewPgProblemRepository(db *sqlx.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) CreateProblem(ctx context.Context, tx *sqlx.Tx, p *model.Problem) error {
	query, args, err := psql.Insert("problems").
		Columns("problem_name", "problem_link", "slug", "difficulty", "category").
		Values(p.ProblemName, p.ProblemLink, p.Slug, string(p.Difficulty), p.Category).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("pgProblemRepository.CreateProblem build: %w", err)
	}

	err = ext(r.db, tx).QueryRowxContext(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return translate("problem", "pgProblemRepository.CreateProblem", err, nil)
}

func (r *pgProblemRepository) UpdateProblem(ctx context.Context, tx *sqlx.Tx, p *model.Problem) error {
	query, args, err := psql.Update("problems").
		Set("problem_name", p.ProblemName).
		Set("problem_link", p.ProblemLink).
		Set("slug", p.Slug).
		Set("difficulty", string(p.Difficulty)).
		Set("category", p.Category).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": p.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("pgProblemRepository.UpdateProblem build: %w", err)
	}

	err = ext(r.db, tx).QueryRowxContext(ctx, query, args...).Scan(&p.UpdatedAt)
	return translate("problem", "pgProblemRepository.UpdateProblem", err, nil)
}

// DeleteProblem removes the problem; its attempts go with it through the
// ON DELETE CASCADE foreign key.
func (r *pgProblemRepository) DeleteProblem(ctx context.Context, tx *sqlx.Tx, id int64) error {
	res, err := ext(r.db, tx).ExecContext(ctx, "DELETE FROM problems WHERE id = $1", id)
	if err != nil {
		return translate("problem", "pgProblemRepository.DeleteProblem", err, nil)
	}
	return requireAffected("problem", "pgProblemRepository.DeleteProblem", res)
}

func (r *pgProblemRepository) FindProblemByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Problem, error) {
	problem := &model.Problem{}
	query := "SELECT " + problemColumns + " FROM problems WHERE id = $1"
	if err := sqlx.GetContext(ctx, ext(r.db, tx), problem, query, id); err != nil {
		return nil, translate("problem", "pgProblemRepository.FindProblemByID", err, nil)
	}
	return problem, nil
}

func (r *pgProblemRepository) ListProblems(ctx context.Context, filter model.ProblemFilter, page common.Page) ([]model.Problem, int, error) {
	where := squirrel.Eq{}
	if filter.Difficulty != "" {
		where["difficulty"] = string(filter.Difficulty)
	}
	if filter.Category != "" {
		where["category"] = filter.Category
	}

	countBuilder := psql.Select("COUNT(*)").From("problems")
	selectBuilder := psql.Select(problemColumns).From("problems")
	if len(where) > 0 {
		countBuilder = countBuilder.Where(where)
		selectBuilder = selectBuilder.Where(where)
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems build count: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems count: %w", err)
	}

	query, args, err := selectBuilder.
		OrderBy("id").
		Limit(page.Limit()).
		Offset(page.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems build: %w", err)
	}

	problems := []model.Problem{}
	if err := r.db.SelectContext(ctx, &problems, query, args...); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems query: %w", err)
	}
	return problems, total, nil
}
