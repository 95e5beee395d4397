package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/live"
)

const accountColumns = `id, name, type, balance, currency, icon, color, created_at, updated_at`

// CreateAccount inserts acct with a zero balance. Balance only changes
// through transactions and recompute.
func (s *Store) CreateAccount(ctx context.Context, acct *ledger.Account) error {
	if acct.ID == "" {
		acct.ID = ledger.NewID()
	}
	if acct.Currency == "" {
		acct.Currency = ledger.DefaultCurrency
	}
	acct.Name = strings.TrimSpace(acct.Name)
	acct.Currency = strings.ToUpper(acct.Currency)
	if err := acct.Validate(); err != nil {
		return err
	}
	now := s.stamp()
	acct.Balance = decimal.Zero
	acct.CreatedAt, acct.UpdatedAt = now, now

	return s.inTx(ctx, "create account", []live.Collection{live.Accounts}, func(tx *sql.Tx) error {
		return insertAccount(ctx, tx, acct)
	})
}

func insertAccount(ctx context.Context, q querier, acct *ledger.Account) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		acct.ID, acct.Name, string(acct.Type), acct.Balance.String(), acct.Currency,
		acct.Icon, acct.Color, acct.CreatedAt.UnixMilli(), acct.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert account %s: %w", acct.ID, err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	acct, err := s.getAccount(ctx, s.reader, id)
	if err != nil {
		return nil, ledger.WrapStorage("get account", err)
	}
	return acct, nil
}

func (s *Store) getAccount(ctx context.Context, q querier, id string) (*ledger.Account, error) {
	row := q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	acct, err := s.scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, id)
	}
	return acct, err
}

func (s *Store) ListAccounts(ctx context.Context, filter ledger.AccountFilter) ([]ledger.Account, error) {
	accounts, err := s.listAccounts(ctx, s.reader, filter)
	if err != nil {
		return nil, ledger.WrapStorage("list accounts", err)
	}
	return accounts, nil
}

func (s *Store) listAccounts(ctx context.Context, q querier, filter ledger.AccountFilter) ([]ledger.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE 1=1`
	args := []any{}

	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}

	query += ` ORDER BY created_at, id`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
		}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		acct, err := s.scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, *acct)
	}
	return accounts, rows.Err()
}

// UpdateAccount changes name, type, currency, icon or color. The balance is
// not patchable.
func (s *Store) UpdateAccount(ctx context.Context, id string, patch ledger.AccountPatch) (*ledger.Account, error) {
	var updated ledger.Account
	err := s.inTx(ctx, "update account", []live.Collection{live.Accounts}, func(tx *sql.Tx) error {
		cur, err := s.getAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = cur.Apply(patch)
		if err := updated.Validate(); err != nil {
			return err
		}
		updated.UpdatedAt = s.stamp()
		_, err = tx.ExecContext(ctx,
			`UPDATE accounts SET name = ?, type = ?, currency = ?, icon = ?, color = ?, updated_at = ? WHERE id = ?`,
			updated.Name, string(updated.Type), updated.Currency, updated.Icon, updated.Color, updated.UpdatedAt.UnixMilli(), id,
		)
		if err != nil {
			return fmt.Errorf("update account %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAccount removes an account. While transactions reference it the
// delete is refused with ErrAccountInUse unless cascade is set; a cascade
// removes those transactions in the same unit and recomputes the other side
// of every removed transfer.
func (s *Store) DeleteAccount(ctx context.Context, id string, cascade bool) error {
	changed := []live.Collection{live.Accounts}
	if cascade {
		changed = append(changed, live.Transactions)
	}
	return s.inTx(ctx, "delete account", changed, func(tx *sql.Tx) error {
		if _, err := s.getAccount(ctx, tx, id); err != nil {
			return err
		}

		var count int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transactions WHERE account_id = ? OR (type = 'transfer' AND to_account_id = ?)`,
			id, id).Scan(&count)
		if err != nil {
			return fmt.Errorf("count references: %w", err)
		}
		if count > 0 && !cascade {
			return fmt.Errorf("%w: %s has %d transactions", ledger.ErrAccountInUse, id, count)
		}

		var counterparts []string
		if count > 0 {
			counterparts, err = transferCounterparts(ctx, tx, id)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM transactions WHERE account_id = ? OR (type = 'transfer' AND to_account_id = ?)`,
				id, id); err != nil {
				return fmt.Errorf("delete account transactions: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete account %s: %w", id, err)
		}

		for _, other := range counterparts {
			if _, err := s.recompute(ctx, tx, other); err != nil && !errors.Is(err, ledger.ErrAccountNotFound) {
				return err
			}
		}
		if len(counterparts) > 0 {
			s.log.Info("cascade delete recomputed counterparts", "account", id, "transactions", count, "counterparts", len(counterparts))
		}
		return nil
	})
}

// transferCounterparts lists the accounts on the other side of transfers
// touching id.
func transferCounterparts(ctx context.Context, q querier, id string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT DISTINCT CASE WHEN account_id = ? THEN to_account_id ELSE account_id END
		FROM transactions
		WHERE type = 'transfer' AND (account_id = ? OR to_account_id = ?)`,
		id, id, id)
	if err != nil {
		return nil, fmt.Errorf("transfer counterparts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var other string
		if err := rows.Scan(&other); err != nil {
			return nil, fmt.Errorf("scan counterpart: %w", err)
		}
		if other != "" && other != id {
			ids = append(ids, other)
		}
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanAccount(row scanner) (*ledger.Account, error) {
	var acct ledger.Account
	var createdAt, updatedAt int64
	err := row.Scan(&acct.ID, &acct.Name, &acct.Type, &acct.Balance, &acct.Currency,
		&acct.Icon, &acct.Color, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	acct.CreatedAt = s.fromMillis(createdAt)
	acct.UpdatedAt = s.fromMillis(updatedAt)
	return &acct, nil
}
