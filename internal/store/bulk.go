package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/live"
)

// Snapshot reads all three collections from one consistent view.
func (s *Store) Snapshot(ctx context.Context) (*ledger.Dataset, error) {
	tx, err := s.reader.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ledger.WrapStorage("snapshot: begin", err)
	}
	defer tx.Rollback()

	ds := &ledger.Dataset{}
	if ds.Accounts, err = s.listAccounts(ctx, tx, ledger.AccountFilter{}); err != nil {
		return nil, ledger.WrapStorage("snapshot", err)
	}
	if ds.Categories, err = s.listCategories(ctx, tx, ledger.CategoryFilter{}); err != nil {
		return nil, ledger.WrapStorage("snapshot", err)
	}
	if ds.Transactions, err = s.listTransactions(ctx, tx, ledger.TransactionFilter{}); err != nil {
		return nil, ledger.WrapStorage("snapshot", err)
	}
	return ds, nil
}

// RestoreFromBackup replaces every collection with ds in one unit. Balances
// are taken as given. If any insert fails nothing changes.
func (s *Store) RestoreFromBackup(ctx context.Context, ds *ledger.Dataset) error {
	return s.inTx(ctx, "restore", live.All, func(tx *sql.Tx) error {
		if err := clearAll(ctx, tx); err != nil {
			return err
		}
		for i := range ds.Accounts {
			if err := insertAccount(ctx, tx, &ds.Accounts[i]); err != nil {
				return err
			}
		}
		for i := range ds.Categories {
			if err := insertCategory(ctx, tx, &ds.Categories[i]); err != nil {
				return err
			}
		}
		for i := range ds.Transactions {
			if err := insertTransaction(ctx, tx, &ds.Transactions[i]); err != nil {
				return err
			}
		}
		s.log.Info("restored backup",
			"accounts", len(ds.Accounts),
			"categories", len(ds.Categories),
			"transactions", len(ds.Transactions))
		return nil
	})
}

// ImportBatch writes new categories and transactions for accountID and
// recomputes that account's balance, all in one unit. It returns the new
// balance.
func (s *Store) ImportBatch(ctx context.Context, accountID string, cats []ledger.Category, txns []ledger.Transaction) (decimal.Decimal, error) {
	for i := range txns {
		if err := txns[i].Validate(); err != nil {
			return decimal.Zero, fmt.Errorf("record %s: %w", txns[i].ID, err)
		}
	}

	var balance decimal.Decimal
	err := s.inTx(ctx, "import batch", live.All, func(tx *sql.Tx) error {
		if _, err := s.getAccount(ctx, tx, accountID); err != nil {
			return err
		}
		for i := range cats {
			if err := insertCategory(ctx, tx, &cats[i]); err != nil {
				return err
			}
		}
		for i := range txns {
			if err := insertTransaction(ctx, tx, &txns[i]); err != nil {
				return err
			}
		}
		var err error
		balance, err = s.recompute(ctx, tx, accountID)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// ClearAll deletes every account, category and transaction.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.inTx(ctx, "clear", live.All, func(tx *sql.Tx) error {
		return clearAll(ctx, tx)
	})
}

func clearAll(ctx context.Context, q querier) error {
	for _, table := range []string{"transactions", "categories", "accounts"} {
		if _, err := q.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Seed creates the default account when there are no accounts, and
// separately the builtin categories when no builtin category exists yet. It
// reports whether anything was written.
func (s *Store) Seed(ctx context.Context, currency string) (bool, error) {
	seeded := false
	err := s.inTx(ctx, "seed", live.All, func(tx *sql.Tx) error {
		var accounts, builtins int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&accounts); err != nil {
			return fmt.Errorf("count accounts: %w", err)
		}
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE is_builtin = 1`).Scan(&builtins); err != nil {
			return fmt.Errorf("count builtin categories: %w", err)
		}
		if accounts > 0 && builtins > 0 {
			return nil
		}

		acct, cats := ledger.SeedData(s.stamp(), currency)
		name := ""
		if accounts == 0 {
			if err := acct.Validate(); err != nil {
				return err
			}
			if err := insertAccount(ctx, tx, &acct); err != nil {
				return err
			}
			name = acct.Name
		}
		created := 0
		if builtins == 0 {
			for i := range cats {
				if err := insertCategory(ctx, tx, &cats[i]); err != nil {
					return err
				}
			}
			created = len(cats)
		}
		seeded = true
		s.log.Info("seeded ledger", "account", name, "categories", created)
		return nil
	})
	return seeded, err
}
