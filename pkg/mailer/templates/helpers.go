package templates

import (
	"time"
)

// Branding carries the sender identity shown in every email.
type Branding struct {
	CompanyName string
	AppName     string
	LogoURL     string
	SupportURL  string
}

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

// ReceiptInfo describes one committed ledger entry for the receipt email.
type ReceiptInfo struct {
	InvoiceNumber   string
	TransactionType string
	Description     string
	Amount          string
	Balance         string
}

func NewBaseEmailData(b Branding, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName: b.CompanyName,
		AppName:     b.AppName,
		LogoURL:     b.LogoURL,
		SupportURL:  b.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewReceiptData(b Branding, name, email string, r ReceiptInfo, opts ...Option) map[string]any {
	d := NewBaseEmailData(b, Receipt, name, email, opts...)
	d.InvoiceNumber = r.InvoiceNumber
	d.TransactionType = r.TransactionType
	d.Description = r.Description
	d.Amount = r.Amount
	d.Balance = r.Balance
	return ToMap(d)
}

func NewWelcomeData(b Branding, name, email string, opts ...Option) map[string]any {
	d := NewBaseEmailData(b, Welcome, name, email, opts...)
	return ToMap(d)
}
