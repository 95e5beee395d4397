package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/live"
)

const categoryColumns = `id, name, type, is_builtin, parent_id, icon, color, created_at, updated_at`

// CreateCategory adds a user category. Builtin categories only come from Seed.
func (s *Store) CreateCategory(ctx context.Context, cat *ledger.Category) error {
	if cat.ID == "" {
		cat.ID = ledger.NewID()
	}
	cat.Name = strings.TrimSpace(cat.Name)
	cat.IsBuiltin = false
	if err := cat.Validate(); err != nil {
		return err
	}
	now := s.stamp()
	cat.CreatedAt, cat.UpdatedAt = now, now

	return s.inTx(ctx, "create category", []live.Collection{live.Categories}, func(tx *sql.Tx) error {
		if cat.ParentID != "" {
			if _, err := s.getCategory(ctx, tx, cat.ParentID); err != nil {
				return err
			}
		}
		return insertCategory(ctx, tx, cat)
	})
}

func insertCategory(ctx context.Context, q querier, cat *ledger.Category) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cat.ID, cat.Name, string(cat.Type), boolToInt(cat.IsBuiltin), cat.ParentID,
		cat.Icon, cat.Color, cat.CreatedAt.UnixMilli(), cat.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert category %s: %w", cat.ID, err)
	}
	return nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (*ledger.Category, error) {
	cat, err := s.getCategory(ctx, s.reader, id)
	if err != nil {
		return nil, ledger.WrapStorage("get category", err)
	}
	return cat, nil
}

func (s *Store) getCategory(ctx context.Context, q querier, id string) (*ledger.Category, error) {
	row := q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	cat, err := s.scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrCategoryNotFound, id)
	}
	return cat, err
}

func (s *Store) ListCategories(ctx context.Context, filter ledger.CategoryFilter) ([]ledger.Category, error) {
	cats, err := s.listCategories(ctx, s.reader, filter)
	if err != nil {
		return nil, ledger.WrapStorage("list categories", err)
	}
	return cats, nil
}

func (s *Store) listCategories(ctx context.Context, q querier, filter ledger.CategoryFilter) ([]ledger.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE 1=1`
	args := []any{}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	query += ` ORDER BY id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []ledger.Category
	for rows.Next() {
		cat, err := s.scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		cats = append(cats, *cat)
	}
	return cats, rows.Err()
}

// UpdateCategory renames or recolors a category. Builtin categories may be
// renamed too; only their deletion is blocked.
func (s *Store) UpdateCategory(ctx context.Context, id string, patch ledger.CategoryPatch) (*ledger.Category, error) {
	var updated ledger.Category
	err := s.inTx(ctx, "update category", []live.Collection{live.Categories}, func(tx *sql.Tx) error {
		cur, err := s.getCategory(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = cur.Apply(patch)
		if err := updated.Validate(); err != nil {
			return err
		}
		if updated.ParentID == id {
			return fmt.Errorf("%w: category cannot be its own parent", ledger.ErrValidation)
		}
		if updated.ParentID != "" && updated.ParentID != cur.ParentID {
			if _, err := s.getCategory(ctx, tx, updated.ParentID); err != nil {
				return err
			}
		}
		updated.UpdatedAt = s.stamp()
		_, err = tx.ExecContext(ctx,
			`UPDATE categories SET name = ?, parent_id = ?, icon = ?, color = ?, updated_at = ? WHERE id = ?`,
			updated.Name, updated.ParentID, updated.Icon, updated.Color, updated.UpdatedAt.UnixMilli(), id,
		)
		if err != nil {
			return fmt.Errorf("update category %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCategory removes a non-builtin category. Transactions keep their
// category_id and resolve as uncategorized from then on.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.inTx(ctx, "delete category", []live.Collection{live.Categories}, func(tx *sql.Tx) error {
		cat, err := s.getCategory(ctx, tx, id)
		if err != nil {
			return err
		}
		if cat.IsBuiltin {
			return fmt.Errorf("%w: %s", ledger.ErrBuiltinCategory, cat.Name)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete category %s: %w", id, err)
		}
		return nil
	})
}

func (s *Store) scanCategory(row scanner) (*ledger.Category, error) {
	var cat ledger.Category
	var isBuiltin int
	var createdAt, updatedAt int64
	err := row.Scan(&cat.ID, &cat.Name, &cat.Type, &isBuiltin, &cat.ParentID,
		&cat.Icon, &cat.Color, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	cat.IsBuiltin = isBuiltin == 1
	cat.CreatedAt = s.fromMillis(createdAt)
	cat.UpdatedAt = s.fromMillis(updatedAt)
	return &cat, nil
}
