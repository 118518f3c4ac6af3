package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ppob-membership/internal/domain/entity"
	repo "github.com/oksasatya/ppob-membership/internal/domain/repository"
	"github.com/oksasatya/ppob-membership/pkg/mailer"
	mailtpl "github.com/oksasatya/ppob-membership/pkg/mailer/templates"
)

const (
	defaultInvoiceRetries = 5
	topUpDescription      = "Top Up balance"
)

// maxAmount keeps amounts inside NUMERIC(20,2).
var maxAmount = decimal.New(1, 18)

// Publisher queues a JSON message for the notification worker.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// EntryIndexer receives every committed ledger entry for search.
type EntryIndexer interface {
	IndexEntry(ctx context.Context, doc HistoryDocument) error
}

type LedgerService struct {
	Users             repo.UserRepository
	Services          repo.ServiceRepository
	Histories         repo.TransactionHistoryRepository
	Tx                repo.Transactor
	Sequencer         *InvoiceSequencer
	Publisher         Publisher
	Indexer           EntryIndexer
	Branding          mailtpl.Branding
	Logger            *logrus.Logger
	MaxInvoiceRetries int
}

func NewLedgerService(users repo.UserRepository, services repo.ServiceRepository, histories repo.TransactionHistoryRepository, tx repo.Transactor, now func() time.Time, logger *logrus.Logger) *LedgerService {
	return &LedgerService{
		Users:             users,
		Services:          services,
		Histories:         histories,
		Tx:                tx,
		Sequencer:         NewInvoiceSequencer(histories, now),
		Logger:            logger,
		MaxInvoiceRetries: defaultInvoiceRetries,
	}
}

// Receipt is the outcome of a committed ledger entry.
type Receipt struct {
	InvoiceNumber   string
	ServiceCode     string
	ServiceName     string
	TransactionType entity.TransactionType
	Amount          decimal.Decimal
	Balance         decimal.Decimal
	CreatedAt       time.Time
}

// ParseAmount accepts only a JSON number literal.
func ParseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return decimal.Zero, ErrInvalidAmount
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

func validateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 || amount.GreaterThanOrEqual(maxAmount) {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return ErrInvalidAmount
	}
	return nil
}

func (s *LedgerService) resolveUser(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *LedgerService) GetBalance(ctx context.Context, email string) (decimal.Decimal, error) {
	u, err := s.resolveUser(ctx, email)
	if err != nil {
		return decimal.Zero, err
	}
	return u.Balance, nil
}

// TopUp credits amount to the user's balance and records a TOPUP entry.
func (s *LedgerService) TopUp(ctx context.Context, email string, amount decimal.Decimal) (*Receipt, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	u, err := s.resolveUser(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.applyDelta(ctx, u, amount, nil)
}

// Purchase debits the service tariff and records a PAYMENT entry.
func (s *LedgerService) Purchase(ctx context.Context, email, serviceCode string) (*Receipt, error) {
	u, err := s.resolveUser(ctx, email)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(serviceCode)
	if code == "" {
		return nil, ErrServiceNotFound
	}
	svc, err := s.Services.GetByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	if u.Balance.LessThan(svc.Tariff) {
		return nil, ErrInsufficientBalance
	}
	return s.applyDelta(ctx, u, svc.Tariff.Neg(), svc)
}

// applyDelta moves the balance and appends the matching entry as one unit.
// A clashing invoice number rolls the whole unit back and it is tried again.
func (s *LedgerService) applyDelta(ctx context.Context, u *entity.User, delta decimal.Decimal, svc *entity.Service) (*Receipt, error) {
	log := loggerOr(s.Logger)
	typ := entity.TransactionTopUp
	if svc != nil {
		typ = entity.TransactionPayment
	}

	for attempt := 0; ; attempt++ {
		rc, err := s.commitEntry(ctx, u, delta, typ, svc)
		if err == nil {
			log.WithFields(logrus.Fields{
				"user_id":          u.ID,
				"invoice_number":   rc.InvoiceNumber,
				"transaction_type": rc.TransactionType,
				"amount":           rc.Amount.String(),
			}).Info("ledger entry committed")
			s.notify(ctx, u, rc)
			return rc, nil
		}
		if errors.Is(err, repo.ErrDuplicateInvoice) && attempt < s.MaxInvoiceRetries {
			log.WithField("user_id", u.ID).WithField("attempt", attempt+1).Debug("invoice number taken, retrying")
			continue
		}
		switch {
		case errors.Is(err, repo.ErrBalanceWouldGoNegative):
			return nil, ErrInsufficientBalance
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrUserNotFound
		}
		log.WithError(err).WithField("user_id", u.ID).Error("ledger entry failed")
		return nil, fmt.Errorf("apply delta: %w", err)
	}
}

func (s *LedgerService) commitEntry(ctx context.Context, u *entity.User, delta decimal.Decimal, typ entity.TransactionType, svc *entity.Service) (*Receipt, error) {
	var rc *Receipt
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		balance, err := s.Users.AdjustBalance(ctx, u.ID, delta)
		if err != nil {
			return err
		}
		invoice, err := s.Sequencer.Next(ctx)
		if err != nil {
			return err
		}
		h := &entity.TransactionHistory{
			InvoiceNumber:   invoice,
			TransactionType: typ,
			Amount:          delta.Abs(),
			Description:     topUpDescription,
			UserID:          u.ID,
			Status:          entity.StatusActive,
		}
		if svc != nil {
			h.ServiceID = svc.ID
			h.Description = svc.Name
		}
		if err := s.Histories.Create(ctx, h); err != nil {
			return err
		}
		rc = &Receipt{
			InvoiceNumber:   h.InvoiceNumber,
			TransactionType: h.TransactionType,
			Amount:          h.Amount,
			Balance:         balance,
			CreatedAt:       h.CreatedAt,
		}
		if svc != nil {
			rc.ServiceCode = svc.Code
			rc.ServiceName = svc.Name
		}
		return nil
	})
	return rc, err
}

// notify publishes the receipt and indexes the entry. Failures are logged only;
// the ledger entry is already committed.
func (s *LedgerService) notify(ctx context.Context, u *entity.User, rc *Receipt) {
	log := loggerOr(s.Logger)
	if s.Publisher != nil {
		job := mailer.EmailJob{
			To:       u.Email,
			Template: mailtpl.Receipt,
			Data: mailtpl.NewReceiptData(s.Branding, fullName(u), u.Email, mailtpl.ReceiptInfo{
				InvoiceNumber:   rc.InvoiceNumber,
				TransactionType: string(rc.TransactionType),
				Description:     describe(rc),
				Amount:          rc.Amount.StringFixed(2),
				Balance:         rc.Balance.StringFixed(2),
			}, mailtpl.WithTime(rc.CreatedAt)),
		}
		if err := s.Publisher.PublishJSON(ctx, job); err != nil {
			log.WithError(err).WithField("invoice_number", rc.InvoiceNumber).Warn("publish receipt failed")
		}
	}
	if s.Indexer != nil {
		doc := HistoryDocument{
			InvoiceNumber:   rc.InvoiceNumber,
			TransactionType: string(rc.TransactionType),
			Description:     describe(rc),
			TotalAmount:     rc.Amount,
			UserID:          u.ID,
			ServiceCode:     rc.ServiceCode,
			CreatedOn:       rc.CreatedAt,
		}
		if err := s.Indexer.IndexEntry(ctx, doc); err != nil {
			log.WithError(err).WithField("invoice_number", rc.InvoiceNumber).Warn("index entry failed")
		}
	}
}

func describe(rc *Receipt) string {
	if rc.ServiceName != "" {
		return rc.ServiceName
	}
	if rc.TransactionType == entity.TransactionTopUp {
		return topUpDescription
	}
	return ""
}

func fullName(u *entity.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
