// Package importer moves records between the ledger and the legacy
// line-oriented text format.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/moneymanager/internal/ledger"
)

// Store is the part of the ledger store the importer needs.
type Store interface {
	GetAccount(ctx context.Context, id string) (*ledger.Account, error)
	ListCategories(ctx context.Context, filter ledger.CategoryFilter) ([]ledger.Category, error)
	ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]ledger.Transaction, error)
	ImportBatch(ctx context.Context, accountID string, cats []ledger.Category, txns []ledger.Transaction) (decimal.Decimal, error)
	Snapshot(ctx context.Context) (*ledger.Dataset, error)
}

type Importer struct {
	store Store
	loc   *time.Location
	log   *slog.Logger
	now   func() time.Time
}

type Option func(*Importer)

// WithLocation sets the zone legacy dates are read and written in.
func WithLocation(loc *time.Location) Option {
	return func(im *Importer) { im.loc = loc }
}

func WithLogger(l *slog.Logger) Option {
	return func(im *Importer) { im.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(im *Importer) { im.now = now }
}

func New(store Store, opts ...Option) *Importer {
	im := &Importer{
		store: store,
		loc:   time.Local,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

type Options struct {
	AccountID string
	// Dedup skips records whose signature matches an existing transaction
	// of the account or an earlier record of the same run.
	Dedup bool
}

type Result struct {
	Imported          int             `json:"imported"`
	CategoriesCreated int             `json:"categories_created"`
	Duplicates        int             `json:"duplicates"`
	Rejected          int             `json:"rejected"`
	Balance           decimal.Decimal `json:"balance"`
}

// signature identifies a record at minute precision, the finest the legacy
// format carries. Two genuinely distinct entries in the same minute with the
// same amount and category collapse into one.
type signature struct {
	minute     int64
	amount     string
	typ        ledger.TransactionType
	categoryID string
}

func signatureOf(date time.Time, amount decimal.Decimal, typ ledger.TransactionType, categoryID string) signature {
	ms := date.UnixMilli()
	minute := ms / 60000
	if ms < 0 && ms%60000 != 0 {
		minute--
	}
	return signature{minute: minute, amount: amount.String(), typ: typ, categoryID: categoryID}
}

type plan struct {
	categories   []ledger.Category
	transactions []ledger.Transaction
	duplicates   int
}

// plan resolves categories and applies dedup without writing anything.
func (im *Importer) plan(ctx context.Context, records []Record, opts Options) (*plan, error) {
	if _, err := im.store.GetAccount(ctx, opts.AccountID); err != nil {
		return nil, err
	}

	existing, err := im.store.ListCategories(ctx, ledger.CategoryFilter{})
	if err != nil {
		return nil, err
	}
	byKey := make(map[ledger.CategoryKey]string, len(existing))
	for _, c := range existing {
		if _, ok := byKey[c.Key()]; !ok {
			byKey[c.Key()] = c.ID
		}
	}

	seen := make(map[signature]bool)
	if opts.Dedup {
		txns, err := im.store.ListTransactions(ctx, ledger.TransactionFilter{AccountID: opts.AccountID})
		if err != nil {
			return nil, err
		}
		for _, t := range txns {
			if t.AccountID != opts.AccountID {
				continue
			}
			seen[signatureOf(t.Date, t.Amount, t.Type, t.CategoryID)] = true
		}
	}

	now := im.now()
	p := &plan{}
	for i, rec := range records {
		key := ledger.CategoryKey{Type: rec.Type, Name: rec.CategoryName}
		catID, ok := byKey[key]
		if !ok {
			cat := ledger.Category{
				ID:        ledger.NewDatedID(now, len(p.categories)),
				Name:      rec.CategoryName,
				Type:      rec.Type,
				CreatedAt: now,
				UpdatedAt: now,
			}
			p.categories = append(p.categories, cat)
			byKey[key] = cat.ID
			catID = cat.ID
		}

		if opts.Dedup {
			sig := signatureOf(rec.Date, rec.Amount, rec.Type, catID)
			if seen[sig] {
				p.duplicates++
				continue
			}
			seen[sig] = true
		}

		p.transactions = append(p.transactions, ledger.Transaction{
			ID:         ledger.NewDatedID(rec.Date, i),
			Amount:     rec.Amount,
			Type:       rec.Type,
			AccountID:  opts.AccountID,
			CategoryID: catID,
			Date:       rec.Date,
			Note:       rec.Note,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return p, nil
}

// Import parses r and writes the surviving records and any new categories
// into the target account in one unit, then recomputes its balance.
func (im *Importer) Import(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	parsed, err := Parse(r, im.loc)
	if err != nil {
		return nil, err
	}
	for _, rej := range parsed.Rejected {
		im.log.Warn("skipping legacy line", "line", rej.Line, "error", rej.Err)
	}
	return im.ImportRecords(ctx, parsed.Records, opts, len(parsed.Rejected))
}

// ImportRecords imports already parsed records. rejected is carried into the
// result for reporting.
func (im *Importer) ImportRecords(ctx context.Context, records []Record, opts Options, rejected int) (*Result, error) {
	if opts.AccountID == "" {
		return nil, ledger.ErrMissingAccount
	}
	p, err := im.plan(ctx, records, opts)
	if err != nil {
		return nil, err
	}

	balance, err := im.store.ImportBatch(ctx, opts.AccountID, p.categories, p.transactions)
	if err != nil {
		return nil, fmt.Errorf("import batch: %w", err)
	}

	res := &Result{
		Imported:          len(p.transactions),
		CategoriesCreated: len(p.categories),
		Duplicates:        p.duplicates,
		Rejected:          rejected,
		Balance:           balance,
	}
	im.log.Info("legacy import finished",
		"account", opts.AccountID,
		"imported", res.Imported,
		"categories_created", res.CategoriesCreated,
		"duplicates", res.Duplicates,
		"rejected", res.Rejected,
		"balance", balance.String())
	return res, nil
}

// CountDuplicates reports how many records of r an Import with Dedup would
// skip. Nothing is written.
func (im *Importer) CountDuplicates(ctx context.Context, r io.Reader, accountID string) (int, error) {
	if accountID == "" {
		return 0, ledger.ErrMissingAccount
	}
	parsed, err := Parse(r, im.loc)
	if err != nil {
		return 0, err
	}
	p, err := im.plan(ctx, parsed.Records, Options{AccountID: accountID, Dedup: true})
	if err != nil {
		return 0, err
	}
	return p.duplicates, nil
}
