package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/live"
	"github.com/simonvc/moneymanager/internal/money"
)

// RecomputeBalance sets the account balance to the decimal sum of the
// signed effects of every transaction touching it and returns the result.
// This is the authoritative balance; incremental updates must agree with it.
func (s *Store) RecomputeBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.inTx(ctx, "recompute balance", []live.Collection{live.Accounts}, func(tx *sql.Tx) error {
		var err error
		balance, err = s.recompute(ctx, tx, accountID)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (s *Store) recompute(ctx context.Context, q querier, accountID string) (decimal.Decimal, error) {
	if _, err := s.getAccount(ctx, q, accountID); err != nil {
		return decimal.Zero, err
	}
	balance, err := s.computedBalance(ctx, q, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	_, err = q.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE id = ?`, balance.String(), accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("write balance %s: %w", accountID, err)
	}
	return balance, nil
}

// computedBalance sums effects in Go; SQL SUM over TEXT would go through
// floating point.
func (s *Store) computedBalance(ctx context.Context, q querier, accountID string) (decimal.Decimal, error) {
	txns, err := s.listTransactions(ctx, q, ledger.TransactionFilter{AccountID: accountID})
	if err != nil {
		return decimal.Zero, err
	}
	effects := make([]decimal.Decimal, 0, len(txns))
	for i := range txns {
		effects = append(effects, txns[i].EffectOn(accountID))
	}
	return money.Sum(effects...), nil
}

// CheckBalances compares every stored balance with its recomputed value
// without writing anything.
func (s *Store) CheckBalances(ctx context.Context) (*ledger.BalanceCheck, error) {
	accounts, err := s.listAccounts(ctx, s.reader, ledger.AccountFilter{})
	if err != nil {
		return nil, ledger.WrapStorage("check balances", err)
	}

	bc := &ledger.BalanceCheck{
		Consistent:  true,
		GeneratedAt: s.stamp(),
	}
	for _, acct := range accounts {
		computed, err := s.computedBalance(ctx, s.reader, acct.ID)
		if err != nil {
			return nil, ledger.WrapStorage("check balances", err)
		}
		line := ledger.BalanceCheckLine{
			AccountID:   acct.ID,
			AccountName: acct.Name,
			Stored:      acct.Balance,
			Computed:    computed,
			Currency:    acct.Currency,
		}
		if !line.Drift().IsZero() {
			bc.Consistent = false
		}
		bc.Lines = append(bc.Lines, line)
	}
	return bc, nil
}
