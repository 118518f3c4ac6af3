package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/oksasatya/ppob-membership/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
// Lookups only resolve active users.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	// AdjustBalance atomically adds delta (which may be negative) to the stored
	// balance and returns the new balance. It fails with
	// ErrBalanceWouldGoNegative without writing when the result would be below zero.
	AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, error)
}
