package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/ppob-membership/internal/domain/entity"
	"github.com/oksasatya/ppob-membership/internal/domain/repository"
)

type ServiceRepository struct {
	pool *pgxpool.Pool
}

func NewServiceRepository(pool *pgxpool.Pool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

func scanService(row interface{ Scan(dest ...any) error }) (entity.Service, error) {
	var s entity.Service
	var tariff, status string
	if err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Icon, &tariff, &status); err != nil {
		return entity.Service{}, translateError(err)
	}
	t, err := parseNumeric(tariff)
	if err != nil {
		return entity.Service{}, err
	}
	s.Tariff = t
	s.Status = entity.Status(status)
	return s, nil
}

func (r *ServiceRepository) GetByCode(ctx context.Context, code string) (*entity.Service, error) {
	s, err := scanService(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, service_code, service_name, service_icon, service_tariff::text, status
		FROM services
		WHERE service_code = $1 AND status = 'active'
	`, code))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ServiceRepository) ListActive(ctx context.Context) ([]entity.Service, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, service_code, service_name, service_icon, service_tariff::text, status
		FROM services
		WHERE status = 'active'
		ORDER BY service_code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.Service, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type BannerRepository struct {
	pool *pgxpool.Pool
}

func NewBannerRepository(pool *pgxpool.Pool) *BannerRepository {
	return &BannerRepository{pool: pool}
}

func (r *BannerRepository) ListActive(ctx context.Context) ([]entity.Banner, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, banner_name, banner_image, description, status
		FROM banners
		WHERE status = 'active'
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.Banner, 0)
	for rows.Next() {
		var b entity.Banner
		var status string
		if err := rows.Scan(&b.ID, &b.Name, &b.Image, &b.Description, &status); err != nil {
			return nil, err
		}
		b.Status = entity.Status(status)
		out = append(out, b)
	}
	return out, rows.Err()
}

var (
	_ repository.ServiceRepository = (*ServiceRepository)(nil)
	_ repository.BannerRepository  = (*BannerRepository)(nil)
)
