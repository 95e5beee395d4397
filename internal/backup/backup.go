// Package backup reads and writes the JSON backup document. The layout
// matches the app's own export: camelCase keys, numeric amounts and epoch
// millisecond timestamps.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/money"
)

// Version is the only document version this package reads and writes.
const Version = "1.0"

type Document struct {
	Version      string        `json:"version"`
	ExportedAt   string        `json:"exportedAt"`
	Accounts     []Account     `json:"accounts"`
	Categories   []Category    `json:"categories"`
	Transactions []Transaction `json:"transactions"`
}

type Account struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Balance   json.Number `json:"balance"`
	Currency  string      `json:"currency"`
	Icon      string      `json:"icon,omitempty"`
	Color     string      `json:"color,omitempty"`
	CreatedAt int64       `json:"createdAt"`
	UpdatedAt int64       `json:"updatedAt"`
}

type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Icon      string `json:"icon,omitempty"`
	Color     string `json:"color,omitempty"`
	ParentID  string `json:"parentId,omitempty"`
	IsBuiltin bool   `json:"isBuiltin"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

type Transaction struct {
	ID          string      `json:"id"`
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	AccountID   string      `json:"accountId"`
	ToAccountID string      `json:"toAccountId,omitempty"`
	CategoryID  string      `json:"categoryId,omitempty"`
	Date        int64       `json:"date"`
	Note        string      `json:"note,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	CreatedAt   int64       `json:"createdAt"`
	UpdatedAt   int64       `json:"updatedAt"`
}

// FileName is the suggested download name for a backup taken at t.
func FileName(t time.Time) string {
	return "money-manager-backup-" + t.UTC().Format(time.DateOnly) + ".json"
}

// NewDocument converts a dataset into a backup document.
func NewDocument(ds *ledger.Dataset, exportedAt time.Time) *Document {
	doc := &Document{
		Version:      Version,
		ExportedAt:   exportedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Accounts:     make([]Account, 0, len(ds.Accounts)),
		Categories:   make([]Category, 0, len(ds.Categories)),
		Transactions: make([]Transaction, 0, len(ds.Transactions)),
	}
	for _, a := range ds.Accounts {
		doc.Accounts = append(doc.Accounts, Account{
			ID:        a.ID,
			Name:      a.Name,
			Type:      string(a.Type),
			Balance:   json.Number(a.Balance.String()),
			Currency:  a.Currency,
			Icon:      a.Icon,
			Color:     a.Color,
			CreatedAt: a.CreatedAt.UnixMilli(),
			UpdatedAt: a.UpdatedAt.UnixMilli(),
		})
	}
	for _, c := range ds.Categories {
		doc.Categories = append(doc.Categories, Category{
			ID:        c.ID,
			Name:      c.Name,
			Type:      string(c.Type),
			Icon:      c.Icon,
			Color:     c.Color,
			ParentID:  c.ParentID,
			IsBuiltin: c.IsBuiltin,
			CreatedAt: c.CreatedAt.UnixMilli(),
			UpdatedAt: c.UpdatedAt.UnixMilli(),
		})
	}
	for _, t := range ds.Transactions {
		doc.Transactions = append(doc.Transactions, Transaction{
			ID:          t.ID,
			Amount:      json.Number(t.Amount.String()),
			Type:        string(t.Type),
			AccountID:   t.AccountID,
			ToAccountID: t.ToAccountID,
			CategoryID:  t.CategoryID,
			Date:        t.Date.UnixMilli(),
			Note:        t.Note,
			Tags:        t.Tags,
			CreatedAt:   t.CreatedAt.UnixMilli(),
			UpdatedAt:   t.UpdatedAt.UnixMilli(),
		})
	}
	return doc
}

// Encode writes ds as an indented backup document.
func Encode(w io.Writer, ds *ledger.Dataset, exportedAt time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(ds, exportedAt)); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// rawDocument keeps collections as raw messages so a missing array can be
// told apart from an empty one.
type rawDocument struct {
	Version      string          `json:"version"`
	ExportedAt   string          `json:"exportedAt"`
	Accounts     json.RawMessage `json:"accounts"`
	Categories   json.RawMessage `json:"categories"`
	Transactions json.RawMessage `json:"transactions"`
}

// Decode reads and validates a backup document. Every failure wraps
// ledger.ErrBackupFormat and happens before anything touches the store.
func Decode(r io.Reader, loc *time.Location) (*ledger.Dataset, error) {
	if loc == nil {
		loc = time.Local
	}
	var raw rawDocument
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrBackupFormat, err)
	}
	if raw.Version == "" {
		return nil, fmt.Errorf("%w: version is missing", ledger.ErrUnsupportedVersion)
	}
	if raw.Version != Version {
		return nil, fmt.Errorf("%w: %q", ledger.ErrUnsupportedVersion, raw.Version)
	}

	var doc Document
	for _, c := range []struct {
		name string
		raw  json.RawMessage
		dst  any
	}{
		{"accounts", raw.Accounts, &doc.Accounts},
		{"categories", raw.Categories, &doc.Categories},
		{"transactions", raw.Transactions, &doc.Transactions},
	} {
		if len(c.raw) == 0 || string(c.raw) == "null" {
			return nil, fmt.Errorf("%w: %s", ledger.ErrMissingCollection, c.name)
		}
		if err := json.Unmarshal(c.raw, c.dst); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ledger.ErrBackupFormat, c.name, err)
		}
	}
	return doc.Dataset(loc)
}

// Dataset converts the document into ledger entities.
func (d *Document) Dataset(loc *time.Location) (*ledger.Dataset, error) {
	at := func(ms int64) time.Time { return time.UnixMilli(ms).In(loc) }
	ds := &ledger.Dataset{
		Accounts:     make([]ledger.Account, 0, len(d.Accounts)),
		Categories:   make([]ledger.Category, 0, len(d.Categories)),
		Transactions: make([]ledger.Transaction, 0, len(d.Transactions)),
	}
	var errs []error

	for i, a := range d.Accounts {
		typ, err := ledger.ParseAccountType(a.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("account %d (%s): %w", i, a.ID, err))
			continue
		}
		balance, err := money.From(a.Balance)
		if err != nil {
			errs = append(errs, fmt.Errorf("account %d (%s): %w", i, a.ID, err))
			continue
		}
		currency := a.Currency
		if currency == "" {
			currency = ledger.DefaultCurrency
		}
		ds.Accounts = append(ds.Accounts, ledger.Account{
			ID:        a.ID,
			Name:      a.Name,
			Type:      typ,
			Balance:   balance,
			Currency:  currency,
			Icon:      a.Icon,
			Color:     a.Color,
			CreatedAt: at(a.CreatedAt),
			UpdatedAt: at(a.UpdatedAt),
		})
	}

	for i, c := range d.Categories {
		typ, err := ledger.ParseTransactionType(c.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("category %d (%s): %w", i, c.ID, err))
			continue
		}
		ds.Categories = append(ds.Categories, ledger.Category{
			ID:        c.ID,
			Name:      c.Name,
			Type:      typ,
			IsBuiltin: c.IsBuiltin,
			ParentID:  c.ParentID,
			Icon:      c.Icon,
			Color:     c.Color,
			CreatedAt: at(c.CreatedAt),
			UpdatedAt: at(c.UpdatedAt),
		})
	}

	for i, t := range d.Transactions {
		typ, err := ledger.ParseTransactionType(t.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("transaction %d (%s): %w", i, t.ID, err))
			continue
		}
		amount, err := money.From(t.Amount)
		if err != nil {
			errs = append(errs, fmt.Errorf("transaction %d (%s): %w", i, t.ID, err))
			continue
		}
		txn := ledger.Transaction{
			ID:          t.ID,
			Amount:      amount,
			Type:        typ,
			AccountID:   t.AccountID,
			ToAccountID: t.ToAccountID,
			CategoryID:  t.CategoryID,
			Date:        at(t.Date),
			Note:        t.Note,
			Tags:        ledger.NormalizeTags(t.Tags),
			CreatedAt:   at(t.CreatedAt),
			UpdatedAt:   at(t.UpdatedAt),
		}
		// Older backups carry income and expense records without a category.
		if err := txn.Validate(); err != nil && !errors.Is(err, ledger.ErrMissingCategory) {
			errs = append(errs, fmt.Errorf("transaction %d (%s): %w", i, t.ID, err))
			continue
		}
		ds.Transactions = append(ds.Transactions, txn)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ledger.ErrBackupFormat, errors.Join(errs...))
	}
	return ds, nil
}
