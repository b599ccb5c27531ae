package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// State is the terminal order state a payment confirmation resolves to.
type State string

const (
	StatePending   State = "pending"
	StateCommitted State = "committed"
	StateAborted   State = "aborted"
)

func (s State) IsTerminal() bool {
	return s == StateCommitted || s == StateAborted
}

type Customer struct {
	Email string
}

type Item struct {
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Order is the read model the payment adapters consume. Adapters never
// mutate it; the outcome of a payment is persisted through Service.
type Order struct {
	ID               int64
	ExtOrderID       string
	Customer         Customer
	Items            []Item
	TotalPrice       decimal.Decimal
	Currency         string
	State            State
	PaymentReference string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
