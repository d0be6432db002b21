package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Store is the tenant that owns a set of orders and products.
type Store struct {
	ID                string
	Name              string
	DefaultFeePercent decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
