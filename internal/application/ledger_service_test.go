package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/ppob-membership/internal/domain/entity"
	"github.com/oksasatya/ppob-membership/internal/domain/repository"
	"github.com/oksasatya/ppob-membership/internal/infrastructure/memory"
	"github.com/oksasatya/ppob-membership/pkg/mailer"
)

var ledgerClock = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

type ledgerFixture struct {
	store  *memory.Store
	ledger *LedgerService
	user   *entity.User
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := memory.NewStore(func() time.Time { return ledgerClock })
	store.AddService(entity.Service{Code: "PULSA", Name: "Pulsa", Tariff: decimal.NewFromInt(10000)})
	store.AddService(entity.Service{Code: "PLN_PRABAYAR", Name: "Listrik Prabayar", Tariff: decimal.NewFromInt(100000)})

	u := &entity.User{Email: "budi@example.com", FirstName: "Budi", LastName: "Santoso"}
	require.NoError(t, store.Users().Create(context.Background(), u))

	ledger := NewLedgerService(store.Users(), store.Services(), store.Transactions(), store, func() time.Time { return ledgerClock }, nil)
	return &ledgerFixture{store: store, ledger: ledger, user: u}
}

func (f *ledgerFixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := f.ledger.GetBalance(context.Background(), f.user.Email)
	require.NoError(t, err)
	return b
}

func TestLedgerTopUpThenPurchaseScenario(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	rc, err := f.ledger.TopUp(ctx, "  BUDI@example.com ", decimal.NewFromInt(50000))
	require.NoError(t, err)
	assert.Equal(t, "INV15012025-001", rc.InvoiceNumber)
	assert.True(t, rc.Balance.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, entity.TransactionTopUp, rc.TransactionType)

	rc, err = f.ledger.Purchase(ctx, f.user.Email, "PULSA")
	require.NoError(t, err)
	assert.Equal(t, "INV15012025-002", rc.InvoiceNumber)
	assert.Equal(t, entity.TransactionPayment, rc.TransactionType)
	assert.Equal(t, "PULSA", rc.ServiceCode)
	assert.Equal(t, "Pulsa", rc.ServiceName)
	assert.True(t, rc.Amount.Equal(decimal.NewFromInt(10000)))
	assert.True(t, rc.Balance.Equal(decimal.NewFromInt(40000)))
	assert.Equal(t, ledgerClock, rc.CreatedAt)

	_, err = f.ledger.Purchase(ctx, f.user.Email, "PLN_PRABAYAR")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, KindInsufficientBalance, KindOf(err))
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(40000)))

	hist := f.store.Histories()
	require.Len(t, hist, 2)
	payment := hist[1]
	assert.Equal(t, entity.TransactionPayment, payment.TransactionType)
	assert.NotEmpty(t, payment.ServiceID)
	assert.Equal(t, "Pulsa", payment.Description)
	assert.Empty(t, hist[0].ServiceID)
}

func TestLedgerTopUpRejectsInvalidAmounts(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	for _, amt := range []decimal.Decimal{
		decimal.NewFromInt(-5),
		decimal.Zero,
		decimal.RequireFromString("10.005"),
		decimal.New(1, 18),
	} {
		_, err := f.ledger.TopUp(ctx, f.user.Email, amt)
		assert.ErrorIs(t, err, ErrInvalidAmount, amt.String())
		assert.Equal(t, KindInvalidArgument, KindOf(err))
	}
	assert.True(t, f.balance(t).IsZero())
	assert.Empty(t, f.store.Histories())
}

func TestLedgerUnknownUserAndService(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.ledger.TopUp(ctx, "nobody@example.com", decimal.NewFromInt(1000))
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = f.ledger.Purchase(ctx, f.user.Email, "NOPE")
	assert.ErrorIs(t, err, ErrServiceNotFound)
	assert.Equal(t, "service not found", err.Error())

	_, err = f.ledger.Purchase(ctx, f.user.Email, "  ")
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = f.ledger.GetBalance(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLedgerPurchaseWithZeroBalance(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.ledger.Purchase(context.Background(), f.user.Email, "PULSA")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, f.store.Histories())
}

func TestLedgerConcurrentEntriesStayConsistent(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	_, err := f.ledger.TopUp(ctx, f.user.Email, decimal.NewFromInt(50000))
	require.NoError(t, err)

	// 10 purchases of 10000 against 50000 plus 10 top-ups of 1000
	var wg sync.WaitGroup
	var mu sync.Mutex
	var bought, rejected int
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Purchase(ctx, f.user.Email, "PULSA")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				bought++
			} else if errors.Is(err, ErrInsufficientBalance) {
				rejected++
			}
		}()
		go func() {
			defer wg.Done()
			_, err := f.ledger.TopUp(ctx, f.user.Email, decimal.NewFromInt(1000))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, bought+rejected)
	want := decimal.NewFromInt(60000).Sub(decimal.NewFromInt(int64(bought) * 10000))
	assert.True(t, f.balance(t).Equal(want), "balance %s want %s", f.balance(t), want)
	assert.False(t, f.balance(t).IsNegative())

	hist := f.store.Histories()
	assert.Len(t, hist, 1+10+bought)
	seen := map[string]bool{}
	for _, h := range hist {
		assert.False(t, seen[h.InvoiceNumber], "duplicate invoice %s", h.InvoiceNumber)
		seen[h.InvoiceNumber] = true
	}
	assert.True(t, seen[fmt.Sprintf("INV15012025-%03d", len(hist))])
}

// flakyHistories fails the first `failures` inserts with err.
type flakyHistories struct {
	repository.TransactionHistoryRepository
	failures int
	err      error
}

func (r *flakyHistories) Create(ctx context.Context, h *entity.TransactionHistory) error {
	if r.failures > 0 {
		r.failures--
		return r.err
	}
	return r.TransactionHistoryRepository.Create(ctx, h)
}

func TestLedgerRetriesOnInvoiceClash(t *testing.T) {
	f := newLedgerFixture(t)
	f.ledger.Histories = &flakyHistories{TransactionHistoryRepository: f.store.Transactions(), failures: 2, err: repository.ErrDuplicateInvoice}

	rc, err := f.ledger.TopUp(context.Background(), f.user.Email, decimal.NewFromInt(2500))
	require.NoError(t, err)
	assert.True(t, rc.Balance.Equal(decimal.NewFromInt(2500)))
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(2500)))
	assert.Len(t, f.store.Histories(), 1)
}

func TestLedgerGivesUpAfterRetries(t *testing.T) {
	f := newLedgerFixture(t)
	f.ledger.MaxInvoiceRetries = 2
	f.ledger.Histories = &flakyHistories{TransactionHistoryRepository: f.store.Transactions(), failures: 3, err: repository.ErrDuplicateInvoice}

	_, err := f.ledger.TopUp(context.Background(), f.user.Email, decimal.NewFromInt(2500))
	require.Error(t, err)
	assert.Equal(t, KindUnexpected, KindOf(err))
	assert.True(t, f.balance(t).IsZero())
}

func TestLedgerRollsBackBalanceWhenHistoryWriteFails(t *testing.T) {
	f := newLedgerFixture(t)
	f.ledger.Histories = &flakyHistories{TransactionHistoryRepository: f.store.Transactions(), failures: 1, err: errors.New("disk full")}

	_, err := f.ledger.TopUp(context.Background(), f.user.Email, decimal.NewFromInt(2500))
	require.Error(t, err)
	assert.Equal(t, KindUnexpected, KindOf(err))
	assert.True(t, f.balance(t).IsZero())
	assert.Empty(t, f.store.Histories())
}

type capturePublisher struct {
	jobs []mailer.EmailJob
	err  error
}

func (p *capturePublisher) PublishJSON(_ context.Context, body any) error {
	if job, ok := body.(mailer.EmailJob); ok {
		p.jobs = append(p.jobs, job)
	}
	return p.err
}

type captureIndexer struct {
	docs []HistoryDocument
}

func (ix *captureIndexer) IndexEntry(_ context.Context, doc HistoryDocument) error {
	ix.docs = append(ix.docs, doc)
	return errors.New("es down")
}

func TestLedgerNotifiesAfterCommitBestEffort(t *testing.T) {
	f := newLedgerFixture(t)
	pub := &capturePublisher{err: errors.New("broker down")}
	ix := &captureIndexer{}
	f.ledger.Publisher = pub
	f.ledger.Indexer = ix

	ctx := context.Background()
	_, err := f.ledger.TopUp(ctx, f.user.Email, decimal.NewFromInt(20000))
	require.NoError(t, err)
	_, err = f.ledger.Purchase(ctx, f.user.Email, "PULSA")
	require.NoError(t, err)

	require.Len(t, pub.jobs, 2)
	assert.Equal(t, "budi@example.com", pub.jobs[1].To)
	assert.Equal(t, "receipt", pub.jobs[1].Template)
	assert.Equal(t, "INV15012025-002", pub.jobs[1].Data["InvoiceNumber"])
	assert.Equal(t, "10000.00", pub.jobs[1].Data["Amount"])
	assert.Equal(t, "10000.00", pub.jobs[1].Data["Balance"])

	require.Len(t, ix.docs, 2)
	assert.Equal(t, f.user.ID, ix.docs[1].UserID)
	assert.Equal(t, "PULSA", ix.docs[1].ServiceCode)
	assert.Equal(t, "Top Up balance", ix.docs[0].Description)
	assert.True(t, f.balance(t).Equal(decimal.NewFromInt(10000)))
}

func TestParseAmount(t *testing.T) {
	ok := map[string]string{
		"50000":  "50000",
		" 12.5 ": "12.5",
		"1e3":    "1000",
		"-5":     "-5",
		"0":      "0",
	}
	for raw, want := range ok {
		d, err := ParseAmount(json.RawMessage(raw))
		require.NoError(t, err, raw)
		assert.True(t, d.Equal(decimal.RequireFromString(want)), raw)
	}
	for _, raw := range []string{``, `null`, `"50000"`, `true`, `{}`, `[1]`, `12abc`} {
		_, err := ParseAmount(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrInvalidAmount, raw)
	}
}
