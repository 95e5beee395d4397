package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dataset is the full content of a ledger: what a backup holds and what a
// restore replaces.
type Dataset struct {
	Accounts     []Account     `json:"accounts"`
	Categories   []Category    `json:"categories"`
	Transactions []Transaction `json:"transactions"`
}

// BalanceCheckLine compares an account's stored balance with the sum of its
// transaction effects.
type BalanceCheckLine struct {
	AccountID   string          `json:"account_id"`
	AccountName string          `json:"account_name"`
	Stored      decimal.Decimal `json:"stored"`
	Computed    decimal.Decimal `json:"computed"`
	Currency    string          `json:"currency"`
}

func (l BalanceCheckLine) Drift() decimal.Decimal {
	return l.Stored.Sub(l.Computed)
}

type BalanceCheck struct {
	Lines       []BalanceCheckLine `json:"lines"`
	Consistent  bool               `json:"consistent"`
	GeneratedAt time.Time          `json:"generated_at"`
}
