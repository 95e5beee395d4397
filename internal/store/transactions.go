package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/live"
)

const transactionColumns = `id, amount, type, account_id, to_account_id, category_id, date, note, tags, created_at, updated_at`

var balanceChanges = []live.Collection{live.Transactions, live.Accounts}

// AddTransaction validates txn, inserts it and applies its balance effects
// in one unit. A zero Date defaults to now; an empty ID is derived from the
// date.
func (s *Store) AddTransaction(ctx context.Context, txn *ledger.Transaction) error {
	now := s.stamp()
	if txn.Date.IsZero() {
		txn.Date = now
	}
	if txn.ID == "" {
		txn.ID = ledger.NewDatedID(txn.Date, 0)
	}
	txn.Tags = ledger.NormalizeTags(txn.Tags)
	txn.CreatedAt, txn.UpdatedAt = now, now

	if err := txn.Validate(); err != nil {
		return err
	}

	return s.inTx(ctx, "add transaction", balanceChanges, func(tx *sql.Tx) error {
		if err := s.checkReferences(ctx, tx, txn); err != nil {
			return err
		}
		if err := insertTransaction(ctx, tx, txn); err != nil {
			return err
		}
		return applyEffects(ctx, tx, txn.Effects(), true)
	})
}

// UpdateTransaction reverses the stored effect, applies the patched one and
// rewrites the row in one unit.
func (s *Store) UpdateTransaction(ctx context.Context, id string, patch ledger.TransactionPatch) (*ledger.Transaction, error) {
	var updated ledger.Transaction
	err := s.inTx(ctx, "update transaction", balanceChanges, func(tx *sql.Tx) error {
		old, err := s.getTransaction(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = old.Apply(patch)
		updated.UpdatedAt = s.stamp()
		if err := updated.Validate(); err != nil {
			return err
		}
		if err := s.checkReferences(ctx, tx, &updated); err != nil {
			return err
		}

		if err := applyEffects(ctx, tx, negate(old.Effects()), false); err != nil {
			return err
		}
		if err := applyEffects(ctx, tx, updated.Effects(), true); err != nil {
			return err
		}

		tags, err := encodeTags(updated.Tags)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE transactions SET amount = ?, type = ?, account_id = ?, to_account_id = ?, category_id = ?,
				date = ?, note = ?, tags = ?, updated_at = ? WHERE id = ?`,
			updated.Amount.String(), string(updated.Type), updated.AccountID, updated.ToAccountID, updated.CategoryID,
			updated.Date.UnixMilli(), updated.Note, tags, updated.UpdatedAt.UnixMilli(), id,
		)
		if err != nil {
			return fmt.Errorf("update transaction %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTransaction reverses the effect and removes the row in one unit.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return s.inTx(ctx, "delete transaction", balanceChanges, func(tx *sql.Tx) error {
		old, err := s.getTransaction(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := applyEffects(ctx, tx, negate(old.Effects()), false); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete transaction %s: %w", id, err)
		}
		return nil
	})
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error) {
	txn, err := s.getTransaction(ctx, s.reader, id)
	if err != nil {
		return nil, ledger.WrapStorage("get transaction", err)
	}
	return txn, nil
}

func (s *Store) getTransaction(ctx context.Context, q querier, id string) (*ledger.Transaction, error) {
	row := q.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := s.scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrTransactionNotFound, id)
	}
	return txn, err
}

// ListTransactions returns matching transactions newest first.
func (s *Store) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	txns, err := s.listTransactions(ctx, s.reader, filter)
	if err != nil {
		return nil, ledger.WrapStorage("list transactions", err)
	}
	return txns, nil
}

func (s *Store) listTransactions(ctx context.Context, q querier, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	args := []any{}

	if filter.AccountID != "" {
		query += ` AND (account_id = ? OR (type = 'transfer' AND to_account_id = ?))`
		args = append(args, filter.AccountID, filter.AccountID)
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, filter.CategoryID)
	}
	if !filter.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, filter.From.UnixMilli())
	}
	if !filter.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, filter.To.UnixMilli())
	}

	query += ` ORDER BY date DESC, id DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
		}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []ledger.Transaction
	for rows.Next() {
		txn, err := s.scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	return txns, rows.Err()
}

// checkReferences verifies the accounts and category txn points at exist and
// that the category type matches. It runs before any write.
func (s *Store) checkReferences(ctx context.Context, q querier, txn *ledger.Transaction) error {
	if _, err := s.getAccount(ctx, q, txn.AccountID); err != nil {
		return err
	}
	if txn.Type == ledger.Transfer {
		if _, err := s.getAccount(ctx, q, txn.ToAccountID); err != nil {
			return err
		}
	}
	if txn.CategoryID == "" {
		return nil
	}
	cat, err := s.getCategory(ctx, q, txn.CategoryID)
	if err != nil {
		return err
	}
	if cat.Type != txn.Type {
		return fmt.Errorf("%w: category %q is %s, transaction is %s", ledger.ErrCategoryTypeMismatch, cat.Name, cat.Type, txn.Type)
	}
	return nil
}

// applyEffects adds each delta to the stored balance. When strict is false a
// missing account is skipped, which lets an orphaned transaction be reversed.
func applyEffects(ctx context.Context, q querier, effects []ledger.Effect, strict bool) error {
	for _, e := range effects {
		var cur decimal.Decimal
		err := q.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = ?`, e.AccountID).Scan(&cur)
		if errors.Is(err, sql.ErrNoRows) {
			if strict {
				return fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, e.AccountID)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("read balance %s: %w", e.AccountID, err)
		}
		next := cur.Add(e.Delta)
		if _, err := q.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE id = ?`, next.String(), e.AccountID); err != nil {
			return fmt.Errorf("write balance %s: %w", e.AccountID, err)
		}
	}
	return nil
}

func negate(effects []ledger.Effect) []ledger.Effect {
	out := make([]ledger.Effect, len(effects))
	for i, e := range effects {
		out[i] = ledger.Effect{AccountID: e.AccountID, Delta: e.Delta.Neg()}
	}
	return out
}

func insertTransaction(ctx context.Context, q querier, txn *ledger.Transaction) error {
	tags, err := encodeTags(txn.Tags)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.Amount.String(), string(txn.Type), txn.AccountID, txn.ToAccountID, txn.CategoryID,
		txn.Date.UnixMilli(), txn.Note, tags, txn.CreatedAt.UnixMilli(), txn.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert transaction %s: %w", txn.ID, err)
	}
	return nil
}

func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func (s *Store) scanTransaction(row scanner) (*ledger.Transaction, error) {
	var txn ledger.Transaction
	var date, createdAt, updatedAt int64
	var tags string
	err := row.Scan(&txn.ID, &txn.Amount, &txn.Type, &txn.AccountID, &txn.ToAccountID, &txn.CategoryID,
		&date, &txn.Note, &tags, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &txn.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of %s: %w", txn.ID, err)
		}
	}
	txn.Date = s.fromMillis(date)
	txn.CreatedAt = s.fromMillis(createdAt)
	txn.UpdatedAt = s.fromMillis(updatedAt)
	return &txn, nil
}
