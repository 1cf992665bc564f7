package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"eventticketing/internal/domain"
)

// selectUser aggregates role codes so a single row carries the whole account.
const selectUser = `
	SELECT u.id, u.email, u.password_hash, u.salt, u.name, u.created_at, u.updated_at,
		COALESCE(array_agg(r.code ORDER BY r.code) FILTER (WHERE r.code IS NOT NULL), '{}')
	FROM users u
	LEFT JOIN user_roles ur ON ur.user_id = u.id
	LEFT JOIN roles r ON r.id = ur.role_id
`

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User, roleCode string) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (email, password_hash, salt, name, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			u.Email, u.PasswordHash, u.Salt, u.Name, u.CreatedAt, u.UpdatedAt,
		).Scan(&u.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicateEmail
			}
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE code = $2`,
			u.ID, roleCode,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return domain.InvalidInputf("unknown role %q", roleCode)
		}
		u.Roles = []string{roleCode}
		return nil
	})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, selectUser+`WHERE u.email = $1 GROUP BY u.id`, email)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, selectUser+`WHERE u.id = $1 GROUP BY u.id`, id)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	u := &domain.User{}
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Salt, &u.Name, &u.CreatedAt, &u.UpdatedAt,
		pq.Array(&u.Roles),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}
