// Package memory provides in-memory repository implementations for tests and
// local development. A single mutex guards the whole store; WithinTx holds it
// for the duration of the unit and restores the previous state on error.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oksasatya/ppob-membership/internal/domain/entity"
	"github.com/oksasatya/ppob-membership/internal/domain/repository"
)

type Store struct {
	mu        sync.Mutex
	users     map[string]entity.User
	services  map[string]entity.Service
	banners   []entity.Banner
	histories []entity.TransactionHistory
	now       func() time.Time
}

// NewStore returns an empty store. now stamps CreatedAt on new rows; nil means time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		users:    make(map[string]entity.User),
		services: make(map[string]entity.Service),
		now:      now,
	}
}

type txKey struct{}

// lock takes the store mutex unless ctx already runs inside this store's WithinTx.
func (s *Store) lock(ctx context.Context) func() {
	if owner, _ := ctx.Value(txKey{}).(*Store); owner == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if owner, _ := ctx.Value(txKey{}).(*Store); owner == s {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make(map[string]entity.User, len(s.users))
	for id, u := range s.users {
		users[id] = u
	}
	historyLen := len(s.histories)

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.users = users
		s.histories = s.histories[:historyLen]
		return err
	}
	return nil
}

// AddService seeds a catalog service, assigning an ID when empty.
func (s *Store) AddService(svc entity.Service) entity.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	if svc.Status == "" {
		svc.Status = entity.StatusActive
	}
	s.services[svc.ID] = svc
	return svc
}

// AddBanner seeds a banner, assigning an ID when empty.
func (s *Store) AddBanner(b entity.Banner) entity.Banner {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = entity.StatusActive
	}
	s.banners = append(s.banners, b)
	return b
}

// Histories returns a copy of every stored ledger entry in insertion order.
func (s *Store) Histories() []entity.TransactionHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.TransactionHistory, len(s.histories))
	copy(out, s.histories)
	return out
}

func (s *Store) Users() *UserRepository                      { return &UserRepository{s: s} }
func (s *Store) Services() *ServiceRepository                { return &ServiceRepository{s: s} }
func (s *Store) Banners() *BannerRepository                  { return &BannerRepository{s: s} }
func (s *Store) Transactions() *TransactionHistoryRepository { return &TransactionHistoryRepository{s: s} }

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	u.ID = uuid.NewString()
	if u.Status == "" {
		u.Status = entity.StatusActive
	}
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	defer r.s.lock(ctx)()
	u, ok := r.s.users[id]
	if !ok || u.Status != entity.StatusActive {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	defer r.s.lock(ctx)()
	for _, u := range r.s.users {
		if u.Email == email && u.Status == entity.StatusActive {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	defer r.s.lock(ctx)()
	cur, ok := r.s.users[u.ID]
	if !ok || cur.Status != entity.StatusActive {
		return repository.ErrNotFound
	}
	cur.FirstName = u.FirstName
	cur.LastName = u.LastName
	cur.ProfileImage = u.ProfileImage
	cur.UpdatedAt = r.s.now()
	u.UpdatedAt = cur.UpdatedAt
	r.s.users[u.ID] = cur
	return nil
}

func (r *UserRepository) AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	defer r.s.lock(ctx)()
	u, ok := r.s.users[id]
	if !ok || u.Status != entity.StatusActive {
		return decimal.Zero, repository.ErrNotFound
	}
	next := u.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, repository.ErrBalanceWouldGoNegative
	}
	u.Balance = next
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return next, nil
}

type ServiceRepository struct{ s *Store }

func (r *ServiceRepository) GetByCode(ctx context.Context, code string) (*entity.Service, error) {
	defer r.s.lock(ctx)()
	for _, svc := range r.s.services {
		if svc.Code == code && svc.Status == entity.StatusActive {
			return &svc, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ServiceRepository) ListActive(ctx context.Context) ([]entity.Service, error) {
	defer r.s.lock(ctx)()
	out := make([]entity.Service, 0, len(r.s.services))
	for _, svc := range r.s.services {
		if svc.Status == entity.StatusActive {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type BannerRepository struct{ s *Store }

func (r *BannerRepository) ListActive(ctx context.Context) ([]entity.Banner, error) {
	defer r.s.lock(ctx)()
	out := make([]entity.Banner, 0, len(r.s.banners))
	for _, b := range r.s.banners {
		if b.Status == entity.StatusActive {
			out = append(out, b)
		}
	}
	return out, nil
}

type TransactionHistoryRepository struct{ s *Store }

func (r *TransactionHistoryRepository) Create(ctx context.Context, h *entity.TransactionHistory) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.histories {
		if existing.InvoiceNumber == h.InvoiceNumber {
			return repository.ErrDuplicateInvoice
		}
	}
	h.ID = uuid.NewString()
	if h.Status == "" {
		h.Status = entity.StatusActive
	}
	h.CreatedAt = r.s.now()
	r.s.histories = append(r.s.histories, *h)
	return nil
}

// newestFirst orders by CreatedAt descending; equal timestamps keep the later insert first.
func newestFirst(in []entity.TransactionHistory) []entity.TransactionHistory {
	out := make([]entity.TransactionHistory, 0, len(in))
	for i := len(in) - 1; i >= 0; i-- {
		out = append(out, in[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *TransactionHistoryRepository) FindLatest(ctx context.Context) (*entity.TransactionHistory, error) {
	defer r.s.lock(ctx)()
	if len(r.s.histories) == 0 {
		return nil, repository.ErrNotFound
	}
	latest := newestFirst(r.s.histories)[0]
	return &latest, nil
}

func (r *TransactionHistoryRepository) ListByUser(ctx context.Context, userID string, q repository.HistoryQuery) ([]entity.HistoryRecord, error) {
	defer r.s.lock(ctx)()
	out := make([]entity.HistoryRecord, 0)
	for _, h := range newestFirst(r.s.histories) {
		if h.UserID != userID || h.Status != entity.StatusActive {
			continue
		}
		rec := entity.HistoryRecord{TransactionHistory: h}
		if svc, ok := r.s.services[h.ServiceID]; ok {
			rec.ServiceCode = svc.Code
			rec.ServiceName = svc.Name
		}
		out = append(out, rec)
	}
	if q.Skip >= len(out) {
		return []entity.HistoryRecord{}, nil
	}
	out = out[q.Skip:]
	if q.Take > 0 && q.Take < len(out) {
		out = out[:q.Take]
	}
	return out, nil
}

var (
	_ repository.Transactor                   = (*Store)(nil)
	_ repository.UserRepository               = (*UserRepository)(nil)
	_ repository.ServiceRepository            = (*ServiceRepository)(nil)
	_ repository.BannerRepository             = (*BannerRepository)(nil)
	_ repository.TransactionHistoryRepository = (*TransactionHistoryRepository)(nil)
)
