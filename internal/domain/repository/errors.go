package repository

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrDuplicateEmail         = errors.New("duplicate email")
	ErrDuplicateInvoice       = errors.New("duplicate invoice number")
	ErrBalanceWouldGoNegative = errors.New("balance would go negative")
)
