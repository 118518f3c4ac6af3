package application

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/oksasatya/ppob-membership/internal/domain/entity"
	repo "github.com/oksasatya/ppob-membership/internal/domain/repository"
	"github.com/oksasatya/ppob-membership/pkg/helpers"
)

const (
	servicesCacheKey = "catalog:services"
	bannersCacheKey  = "catalog:banners"
)

// CatalogService serves banners and services, cached in Redis as JSON when
// Redis is configured.
type CatalogService struct {
	Services repo.ServiceRepository
	Banners  repo.BannerRepository
	Redis    *redis.Client
	TTL      time.Duration
	Logger   *logrus.Logger

	loads singleflight.Group
}

func NewCatalogService(services repo.ServiceRepository, banners repo.BannerRepository, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *CatalogService {
	return &CatalogService{Services: services, Banners: banners, Redis: rdb, TTL: ttl, Logger: logger}
}

func (s *CatalogService) ListServices(ctx context.Context) ([]entity.Service, error) {
	return cached(ctx, s, servicesCacheKey, s.Services.ListActive)
}

func (s *CatalogService) ListBanners(ctx context.Context) ([]entity.Banner, error) {
	return cached(ctx, s, bannersCacheKey, s.Banners.ListActive)
}

// Invalidate drops both cached lists.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, servicesCacheKey, bannersCacheKey).Err()
}

func cached[T any](ctx context.Context, s *CatalogService, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	log := loggerOr(s.Logger)
	if s.Redis != nil && s.TTL > 0 {
		var out []T
		hit, err := helpers.RedisGetJSON(ctx, s.Redis, key, &out)
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("catalog cache read failed")
		}
		if hit {
			return out, nil
		}
	}

	// concurrent misses share one load
	v, err, _ := s.loads.Do(key, func() (any, error) {
		out, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if s.Redis != nil && s.TTL > 0 {
			if err := helpers.RedisSetJSON(ctx, s.Redis, key, out, s.TTL); err != nil {
				log.WithError(err).WithField("key", key).Warn("catalog cache write failed")
			}
		}
		return out, nil
	})
	if err != nil {
		log.WithError(err).WithField("key", key).Error("load catalog failed")
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return v.([]T), nil
}
