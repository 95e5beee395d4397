package stats

import (
	"context"
	"time"

	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/live"
)

// Source is the read side of the ledger store.
type Source interface {
	ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]ledger.Transaction, error)
	ListCategories(ctx context.Context, filter ledger.CategoryFilter) ([]ledger.Category, error)
}

type Service struct {
	src Source
	bus *live.Bus
	loc *time.Location
	now func() time.Time
}

func NewService(src Source, bus *live.Bus, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{src: src, bus: bus, loc: loc, now: time.Now}
}

// Summary aggregates the period of dim containing ref. A zero ref means now.
func (s *Service) Summary(ctx context.Context, dim Dimension, ref time.Time) (*Summary, error) {
	if ref.IsZero() {
		ref = s.now()
	}
	r, err := ResolveRange(dim, ref.In(s.loc))
	if err != nil {
		return nil, err
	}

	txns, err := s.src.ListTransactions(ctx, ledger.TransactionFilter{From: r.Start, To: r.End})
	if err != nil {
		return nil, err
	}
	cats, err := s.src.ListCategories(ctx, ledger.CategoryFilter{})
	if err != nil {
		return nil, err
	}
	return Compute(dim, r, txns, cats), nil
}

// Watch returns the current summary and calls onChange with a fresh one
// after every change to transactions or categories, until cancel is called
// or ctx ends.
func (s *Service) Watch(ctx context.Context, dim Dimension, ref time.Time, onChange func(*Summary, error)) (*Summary, func(), error) {
	if ref.IsZero() {
		ref = s.now()
	}
	query := func(ctx context.Context) (*Summary, error) {
		return s.Summary(ctx, dim, ref)
	}
	return live.Subscribe(ctx, s.bus, []live.Collection{live.Transactions, live.Categories}, query, onChange)
}
