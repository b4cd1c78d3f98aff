package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset is a single tracked holding. Amount is a price for monetary currencies
// and a physical quantity for units such as grams of gold.
type Asset struct {
	ID          int64            `json:"id"`
	GroupID     int64            `json:"groupId"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Owner       string           `json:"owner,omitempty"`
	Icon        string           `json:"icon,omitempty"`
	Type        string           `json:"type,omitempty"`
	Amount      decimal.Decimal  `json:"amount"`
	Currency    string           `json:"currency"`
	NotCounted  bool             `json:"notCounted,omitempty"`
	BaseAmount  *decimal.Decimal `json:"baseAmount,omitempty"` // value in BaseCurrency, cached at snapshot time
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Counted reports whether the asset participates in displayed totals.
func Counted(a Asset) bool {
	return !a.NotCounted
}

// AssetTypes lists the known asset classifications, in display order.
var AssetTypes = []string{
	"cash",
	"current",
	"metal",
	"gold",
	"silver",
	"low",
	"medium",
	"high",
	"fixed",
	"realEstate",
	"other",
}
