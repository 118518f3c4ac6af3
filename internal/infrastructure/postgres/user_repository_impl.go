package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/oksasatya/ppob-membership/internal/domain/entity"
	"github.com/oksasatya/ppob-membership/internal/domain/repository"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, first_name, last_name, salt, password_hash, profile_image, balance::text, status, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*entity.User, error) {
	u := &entity.User{}
	var balance, status string
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Salt, &u.PasswordHash,
		&u.ProfileImage, &balance, &status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, translateError(err)
	}
	b, err := parseNumeric(balance)
	if err != nil {
		return nil, err
	}
	u.Balance = b
	u.Status = entity.Status(status)
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.Status == "" {
		u.Status = entity.StatusActive
	}
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (email, first_name, last_name, salt, password_hash, profile_image, balance, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8)
		RETURNING id, created_at, updated_at
	`, u.Email, u.FirstName, u.LastName, u.Salt, u.PasswordHash, u.ProfileImage, u.Balance.String(), string(u.Status))

	return translateError(row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1 AND status = 'active'
	`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1 AND status = 'active'
	`, email))
}

// Update persists profile fields only; the balance is owned by AdjustBalance.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()

	res, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, profile_image = $3, updated_at = $4
		WHERE id = $5 AND status = 'active'
	`, u.FirstName, u.LastName, u.ProfileImage, u.UpdatedAt, u.ID)
	if err != nil {
		return translateError(err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepository) AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	db := conn(ctx, r.pool)
	var balance string
	err := db.QueryRow(ctx, `
		UPDATE users
		SET balance = balance + $1::numeric, updated_at = now()
		WHERE id = $2 AND status = 'active' AND balance + $1::numeric >= 0
		RETURNING balance::text
	`, delta.String(), id).Scan(&balance)
	if err == nil {
		return parseNumeric(balance)
	}

	err = translateError(err)
	if !errors.Is(err, repository.ErrNotFound) {
		return decimal.Zero, err
	}
	// zero rows: either the user is gone or the guard rejected the change
	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND status = 'active')`, id).Scan(&exists); err != nil {
		return decimal.Zero, err
	}
	if !exists {
		return decimal.Zero, repository.ErrNotFound
	}
	return decimal.Zero, repository.ErrBalanceWouldGoNegative
}

var _ repository.UserRepository = (*UserRepository)(nil)
