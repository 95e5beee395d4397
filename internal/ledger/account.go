package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountCash         AccountType = "cash"
	AccountBank         AccountType = "bank"
	AccountMobileWallet AccountType = "mobile-wallet"
	AccountCreditCard   AccountType = "credit-card"
	AccountOther        AccountType = "other"
)

var AllAccountTypes = []AccountType{
	AccountCash,
	AccountBank,
	AccountMobileWallet,
	AccountCreditCard,
	AccountOther,
}

// ParseAccountType accepts the canonical labels plus the older wallet and
// card spellings found in backups (alipay, wechat, credit_card).
func ParseAccountType(s string) (AccountType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return AccountCash, nil
	case "bank":
		return AccountBank, nil
	case "mobile-wallet", "alipay", "wechat":
		return AccountMobileWallet, nil
	case "credit-card", "credit_card":
		return AccountCreditCard, nil
	case "other":
		return AccountOther, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountType, s)
	}
}

// AccountTypeLabel returns a human-readable label for an account type.
func AccountTypeLabel(t AccountType) string {
	switch t {
	case AccountCash:
		return "Cash"
	case AccountBank:
		return "Bank"
	case AccountMobileWallet:
		return "Mobile wallet"
	case AccountCreditCard:
		return "Credit card"
	case AccountOther:
		return "Other"
	default:
		return string(t)
	}
}

func ValidAccountType(t AccountType) bool {
	for _, v := range AllAccountTypes {
		if v == t {
			return true
		}
	}
	return false
}

type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Icon      string          `json:"icon,omitempty"`
	Color     string          `json:"color,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Validate checks the fields a caller controls. Balance is derived and
// never validated here.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !ValidAccountType(a.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidAccountType, a.Type)
	}
	if !ValidCurrency(a.Currency) {
		return fmt.Errorf("%w: %s", ErrInvalidCurrency, a.Currency)
	}
	return nil
}

// AccountPatch carries the user-editable account fields; nil means unchanged.
type AccountPatch struct {
	Name     *string      `json:"name,omitempty"`
	Type     *AccountType `json:"type,omitempty"`
	Currency *string      `json:"currency,omitempty"`
	Icon     *string      `json:"icon,omitempty"`
	Color    *string      `json:"color,omitempty"`
}

// Apply returns a copy of a with the patch applied.
func (a Account) Apply(p AccountPatch) Account {
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Currency != nil {
		a.Currency = strings.ToUpper(strings.TrimSpace(*p.Currency))
	}
	if p.Icon != nil {
		a.Icon = *p.Icon
	}
	if p.Color != nil {
		a.Color = *p.Color
	}
	return a
}

type AccountFilter struct {
	Type   AccountType
	Limit  int
	Offset int
}
