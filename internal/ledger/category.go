package ledger

import (
	"fmt"
	"strings"
	"time"
)

type Category struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      TransactionType `json:"type"`
	IsBuiltin bool            `json:"is_builtin"`
	ParentID  string          `json:"parent_id,omitempty"`
	Icon      string          `json:"icon,omitempty"`
	Color     string          `json:"color,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !ValidTransactionType(c.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidType, c.Type)
	}
	return nil
}

// CategoryKey identifies a category by what a user sees: its type and name.
type CategoryKey struct {
	Type TransactionType
	Name string
}

func (c *Category) Key() CategoryKey {
	return CategoryKey{Type: c.Type, Name: c.Name}
}

// CategoryPatch covers rename and recolor. Type and IsBuiltin are fixed at
// creation.
type CategoryPatch struct {
	Name     *string `json:"name,omitempty"`
	ParentID *string `json:"parent_id,omitempty"`
	Icon     *string `json:"icon,omitempty"`
	Color    *string `json:"color,omitempty"`
}

func (c Category) Apply(p CategoryPatch) Category {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.ParentID != nil {
		c.ParentID = *p.ParentID
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	return c
}

type CategoryFilter struct {
	Type TransactionType
}
