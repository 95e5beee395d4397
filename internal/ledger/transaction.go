package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is shared by transactions and categories: a category of
// type T may only be referenced by transactions of type T.
type TransactionType string

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

var AllTransactionTypes = []TransactionType{Income, Expense, Transfer}

func ValidTransactionType(t TransactionType) bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	default:
		return false
	}
}

func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !ValidTransactionType(t) {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

type Transaction struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	AccountID   string          `json:"account_id"`
	ToAccountID string          `json:"to_account_id,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
	Date        time.Time       `json:"date"`
	Note        string          `json:"note,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Validate checks the invariants that need no lookups: positive amount,
// known type, account presence and the transfer shape. Referential and
// category-type checks belong to the store.
func (t *Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, t.Amount)
	}
	if !ValidTransactionType(t.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if t.AccountID == "" {
		return ErrMissingAccount
	}
	switch t.Type {
	case Transfer:
		if t.ToAccountID == "" {
			return ErrMissingToAccount
		}
		if t.ToAccountID == t.AccountID {
			return ErrSelfTransfer
		}
	case Income, Expense:
		if t.ToAccountID != "" {
			return ErrUnexpectedToAccount
		}
		if t.CategoryID == "" {
			return ErrMissingCategory
		}
	}
	return nil
}

// Effect is the signed change a transaction makes to one account balance.
type Effect struct {
	AccountID string
	Delta     decimal.Decimal
}

// Effects returns the balance deltas of t. Direction comes from the type;
// the stored amount is always unsigned.
func (t *Transaction) Effects() []Effect {
	switch t.Type {
	case Income:
		return []Effect{{AccountID: t.AccountID, Delta: t.Amount}}
	case Expense:
		return []Effect{{AccountID: t.AccountID, Delta: t.Amount.Neg()}}
	case Transfer:
		return []Effect{
			{AccountID: t.AccountID, Delta: t.Amount.Neg()},
			{AccountID: t.ToAccountID, Delta: t.Amount},
		}
	default:
		return nil
	}
}

// EffectOn returns the net delta t applies to accountID.
func (t *Transaction) EffectOn(accountID string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range t.Effects() {
		if e.AccountID == accountID {
			total = total.Add(e.Delta)
		}
	}
	return total
}

// Touches reports whether t references accountID as source or destination.
func (t *Transaction) Touches(accountID string) bool {
	return t.AccountID == accountID || (t.Type == Transfer && t.ToAccountID == accountID)
}

// NormalizeTags trims tags and drops empties and repeats, keeping first
// occurrence order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// TransactionPatch is a partial update; nil fields are left unchanged.
type TransactionPatch struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Type        *TransactionType `json:"type,omitempty"`
	AccountID   *string          `json:"account_id,omitempty"`
	ToAccountID *string          `json:"to_account_id,omitempty"`
	CategoryID  *string          `json:"category_id,omitempty"`
	Date        *time.Time       `json:"date,omitempty"`
	Note        *string          `json:"note,omitempty"`
	Tags        *[]string        `json:"tags,omitempty"`
}

// Apply returns a copy of t with the patch applied. Changing a transaction
// away from transfer drops its destination account; changing it into a
// transfer drops its category unless the patch sets one.
func (t Transaction) Apply(p TransactionPatch) Transaction {
	oldType := t.Type
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	if p.ToAccountID != nil {
		t.ToAccountID = *p.ToAccountID
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Note != nil {
		t.Note = *p.Note
	}
	if p.Tags != nil {
		t.Tags = NormalizeTags(*p.Tags)
	}
	if t.Type != Transfer {
		t.ToAccountID = ""
	} else if oldType != Transfer && p.CategoryID == nil {
		t.CategoryID = ""
	}
	return t
}

// TransactionFilter narrows ListTransactions. AccountID matches either side
// of a transfer. From and To are inclusive; zero values are unbounded.
type TransactionFilter struct {
	AccountID  string
	Type       TransactionType
	CategoryID string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}
