package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ppob-membership/internal/domain/entity"
	repo "github.com/oksasatya/ppob-membership/internal/domain/repository"
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

type HistorySearcher interface {
	Search(ctx context.Context, userID, q string, size int) ([]HistoryDocument, error)
}

type HistoryService struct {
	Users     repo.UserRepository
	Histories repo.TransactionHistoryRepository
	Searcher  HistorySearcher
	Logger    *logrus.Logger
}

func NewHistoryService(users repo.UserRepository, histories repo.TransactionHistoryRepository, searcher HistorySearcher, logger *logrus.Logger) *HistoryService {
	return &HistoryService{Users: users, Histories: histories, Searcher: searcher, Logger: logger}
}

type HistoryEntry struct {
	InvoiceNumber   string
	TransactionType entity.TransactionType
	Description     string
	TotalAmount     decimal.Decimal
	CreatedOn       time.Time
}

// HistoryPage echoes the requested offset and limit back with the records.
type HistoryPage struct {
	Offset  int
	Limit   *int
	Records []HistoryEntry
}

// ListHistory returns the user's active entries newest first. With a positive
// limit the offset counts pages: it skips offset*limit entries.
func (s *HistoryService) ListHistory(ctx context.Context, email string, offset int, limit *int) (*HistoryPage, error) {
	if offset < 0 || (limit != nil && *limit < 0) {
		return nil, ErrInvalidPagination
	}
	u, err := s.resolveUser(ctx, email)
	if err != nil {
		return nil, err
	}

	q := repo.HistoryQuery{}
	if limit != nil && *limit > 0 {
		q.Skip = offset * *limit
		q.Take = *limit
	}
	rows, err := s.Histories.ListByUser(ctx, u.ID, q)
	if err != nil {
		loggerOr(s.Logger).WithError(err).WithField("user_id", u.ID).Error("list history failed")
		return nil, fmt.Errorf("list history: %w", err)
	}

	records := make([]HistoryEntry, 0, len(rows))
	for _, r := range rows {
		desc := r.ServiceName
		if desc == "" {
			desc = r.Description
		}
		records = append(records, HistoryEntry{
			InvoiceNumber:   r.InvoiceNumber,
			TransactionType: r.TransactionType,
			Description:     desc,
			TotalAmount:     r.Amount,
			CreatedOn:       r.CreatedAt,
		})
	}
	return &HistoryPage{Offset: offset, Limit: limit, Records: records}, nil
}

// Search looks the user's entries up in the search index.
func (s *HistoryService) Search(ctx context.Context, email, q string, size int) ([]HistoryDocument, error) {
	u, err := s.resolveUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = defaultSearchSize
	}
	if size > maxSearchSize {
		size = maxSearchSize
	}
	if s.Searcher == nil {
		return []HistoryDocument{}, nil
	}
	docs, err := s.Searcher.Search(ctx, u.ID, strings.TrimSpace(q), size)
	if err != nil {
		loggerOr(s.Logger).WithError(err).WithField("user_id", u.ID).Error("search history failed")
		return nil, fmt.Errorf("search history: %w", err)
	}
	return docs, nil
}

func (s *HistoryService) resolveUser(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
