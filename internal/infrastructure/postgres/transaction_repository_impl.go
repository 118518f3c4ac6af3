package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/ppob-membership/internal/domain/entity"
	"github.com/oksasatya/ppob-membership/internal/domain/repository"
)

type TransactionHistoryRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionHistoryRepository(pool *pgxpool.Pool) *TransactionHistoryRepository {
	return &TransactionHistoryRepository{pool: pool}
}

func nullableUUID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func (r *TransactionHistoryRepository) Create(ctx context.Context, h *entity.TransactionHistory) error {
	if h.Status == "" {
		h.Status = entity.StatusActive
	}
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO transaction_histories (invoice_number, transaction_type, total_amount, description, user_id, service_id, status)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
		RETURNING id, created_at
	`, h.InvoiceNumber, string(h.TransactionType), h.Amount.String(), h.Description, h.UserID, nullableUUID(h.ServiceID), string(h.Status))

	return translateError(row.Scan(&h.ID, &h.CreatedAt))
}

func (r *TransactionHistoryRepository) FindLatest(ctx context.Context) (*entity.TransactionHistory, error) {
	h := &entity.TransactionHistory{}
	var txType, amount, status string
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, invoice_number, transaction_type, total_amount::text, description, user_id, COALESCE(service_id::text, ''), status, created_at
		FROM transaction_histories
		ORDER BY created_at DESC, invoice_number DESC
		LIMIT 1
	`).Scan(&h.ID, &h.InvoiceNumber, &txType, &amount, &h.Description, &h.UserID, &h.ServiceID, &status, &h.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	if h.Amount, err = parseNumeric(amount); err != nil {
		return nil, err
	}
	h.TransactionType = entity.TransactionType(txType)
	h.Status = entity.Status(status)
	return h, nil
}

func (r *TransactionHistoryRepository) ListByUser(ctx context.Context, userID string, q repository.HistoryQuery) ([]entity.HistoryRecord, error) {
	var limit any
	if q.Take > 0 {
		limit = q.Take
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT th.id, th.invoice_number, th.transaction_type, th.total_amount::text, th.description,
		       th.user_id, COALESCE(th.service_id::text, ''), th.status, th.created_at,
		       COALESCE(s.service_code, ''), COALESCE(s.service_name, '')
		FROM transaction_histories th
		LEFT JOIN services s ON s.id = th.service_id
		WHERE th.user_id = $1 AND th.status = 'active'
		ORDER BY th.created_at DESC, th.invoice_number DESC
		OFFSET $2
		LIMIT $3
	`, userID, q.Skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.HistoryRecord, 0)
	for rows.Next() {
		var rec entity.HistoryRecord
		var txType, amount, status string
		if err := rows.Scan(&rec.ID, &rec.InvoiceNumber, &txType, &amount, &rec.Description,
			&rec.UserID, &rec.ServiceID, &status, &rec.CreatedAt, &rec.ServiceCode, &rec.ServiceName); err != nil {
			return nil, err
		}
		if rec.Amount, err = parseNumeric(amount); err != nil {
			return nil, err
		}
		rec.TransactionType = entity.TransactionType(txType)
		rec.Status = entity.Status(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ repository.TransactionHistoryRepository = (*TransactionHistoryRepository)(nil)
