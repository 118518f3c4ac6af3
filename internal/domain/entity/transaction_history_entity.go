package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTopUp   TransactionType = "TOPUP"
	TransactionPayment TransactionType = "PAYMENT"
)

// TransactionHistory is an append-only ledger entry.
// A PAYMENT always carries ServiceID; a TOPUP never does. Amount is what was
// actually charged or credited and Description snapshots the service name at
// purchase time.
type TransactionHistory struct {
	ID              string
	InvoiceNumber   string
	TransactionType TransactionType
	Amount          decimal.Decimal
	Description     string
	UserID          string
	ServiceID       string
	Status          Status
	CreatedAt       time.Time
}

// HistoryRecord is a TransactionHistory joined with the service it references.
type HistoryRecord struct {
	TransactionHistory
	ServiceCode string
	ServiceName string
}
