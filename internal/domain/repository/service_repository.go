package repository

import (
	"context"

	"github.com/oksasatya/ppob-membership/internal/domain/entity"
)

type ServiceRepository interface {
	GetByCode(ctx context.Context, code string) (*entity.Service, error)
	ListActive(ctx context.Context) ([]entity.Service, error)
}

type BannerRepository interface {
	ListActive(ctx context.Context) ([]entity.Banner, error)
}
