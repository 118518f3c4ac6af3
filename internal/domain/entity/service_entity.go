package entity

import "github.com/shopspring/decimal"

// Service is a catalog item (mobile credit, utility bill...) purchased for a fixed tariff.
type Service struct {
	ID     string
	Code   string
	Name   string
	Icon   string
	Tariff decimal.Decimal
	Status Status
}
