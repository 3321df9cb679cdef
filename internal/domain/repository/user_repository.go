package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"algo_tracker/internal/common"
	"algo_tracker/internal/domain/model"
)

const userColumns = "id, email, user_name, picture, password_hash, oauth_provider, oauth_id, is_admin, created_at, updated_at"

var userConflicts = map[string]string{
	"users_email_key":    "email already registered",
	"users_oauth_id_key": "oauth account already linked",
}

type UserRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, user *model.User) error
	FindByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, tx *sqlx.Tx, email string) (*model.User, error)
	List(ctx context.Context, page common.Page) ([]model.User, int, error)
	Update(ctx context.Context, tx *sqlx.Tx, user *model.User) error
	Delete(ctx context.Context, tx *sqlx.Tx, id int64) error
}

type pgUserRepository struct {
	db *sqlx.DB
}

func NewPgUserRepository(db *sqlx.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	query, args, err := psql.Insert("users").
		Columns("email", "user_name", "picture", "password_hash", "oauth_provider", "oauth_id", "is_admin").
		Values(user.Email, user.UserName, user.Picture, user.PasswordHash, user.OAuthProvider, user.OAuthID, user.IsAdmin).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("pgUserRepository.Create build: %w", err)
	}

	err = ext(r.db, tx).QueryRowxContext(ctx, query, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return translate("user", "pgUserRepository.Create", err, userConflicts)
}

func (r *pgUserRepository) FindByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.User, error) {
	return r.findOne(ctx, tx, "pgUserRepository.FindByID", squirrel.Eq{"id": id})
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, tx *sqlx.Tx, email string) (*model.User, error) {
	return r.findOne(ctx, tx, "pgUserRepository.FindByEmail", squirrel.Eq{"email": email})
}

func (r *pgUserRepository) findOne(ctx context.Context, tx *sqlx.Tx, op string, where squirrel.Eq) (*model.User, error) {
	query, args, err := psql.Select(userColumns).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s build: %w", op, err)
	}

	user := &model.User{}
	if err := sqlx.GetContext(ctx, ext(r.db, tx), user, query, args...); err != nil {
		return nil, translate("user", op, err, nil)
	}
	return user, nil
}

func (r *pgUserRepository) List(ctx context.Context, page common.Page) ([]model.User, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users"); err != nil {
		return nil, 0, fmt.Errorf("pgUserRepository.List count: %w", err)
	}

	query, args, err := psql.Select(userColumns).From("users").
		OrderBy("id").
		Limit(page.Limit()).
		Offset(page.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("pgUserRepository.List build: %w", err)
	}

	users := []model.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("pgUserRepository.List query: %w", err)
	}
	return users, total, nil
}

// Update writes the mutable profile columns of user.
func (r *pgUserRepository) Update(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	query, args, err := psql.Update("users").
		Set("email", user.Email).
		Set("user_name", user.UserName).
		Set("picture", user.Picture).
		Set("is_admin", user.IsAdmin).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": user.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("pgUserRepository.Update build: %w", err)
	}

	err = ext(r.db, tx).QueryRowxContext(ctx, query, args...).Scan(&user.UpdatedAt)
	return translate("user", "pgUserRepository.Update", err, userConflicts)
}

func (r *pgUserRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	res, err := ext(r.db, tx).ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return translate("user", "pgUserRepository.Delete", err, nil)
	}
	return requireAffected("user", "pgUserRepository.Delete", res)
}
