package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/simonvc/moneymanager/internal/client"
	"github.com/simonvc/moneymanager/internal/ledger"
)

type categoriesLoadedMsg struct {
	categories []ledger.Category
	err        error
}

type categoryChangedMsg struct {
	status string
	err    error
}

// categoryListModel shows expense categories, then income categories. New
// categories are typed inline; n adds one of the type under the cursor.
type categoryListModel struct {
	categories    []ledger.Category
	cursor        int
	loading       bool
	adding        bool
	addType       ledger.TransactionType
	input         textinput.Model
	confirmDelete bool
	status        string
	err           error
	width         int
	height        int
}

func (m *categoryListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		ctx := context.Background()
		expense, err := c.ListCategories(ctx, ledger.Expense)
		if err != nil {
			return categoriesLoadedMsg{err: err}
		}
		income, err := c.ListCategories(ctx, ledger.Income)
		return categoriesLoadedMsg{categories: append(expense, income...), err: err}
	}
}

// busy reports whether the model wants every key, including tab and q.
func (m *categoryListModel) busy() bool {
	return m.adding || m.confirmDelete
}

func (m categoryListModel) update(msg tea.Msg, c *client.Client) (categoryListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case categoriesLoadedMsg:
		m.loading = false
		m.categories = msg.categories
		m.err = msg.err
		if m.cursor >= len(m.categories) {
			m.cursor = max(len(m.categories)-1, 0)
		}

	case categoryChangedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.status = msg.status
		cmd := m.init(c)
		return m, cmd

	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg, c)
		}
		if m.confirmDelete {
			m.confirmDelete = false
			if cat := m.selected(); cat != nil && (msg.String() == "y" || msg.String() == "Y") {
				id, name := cat.ID, cat.Name
				return m, func() tea.Msg {
					err := c.DeleteCategory(context.Background(), id)
					return categoryChangedMsg{status: "Category " + name + " deleted", err: err}
				}
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.categories)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.New):
			m.adding = true
			m.addType = ledger.Expense
			if cat := m.selected(); cat != nil {
				m.addType = cat.Type
			}
			m.input = textinput.New()
			m.input.Placeholder = "category name"
			m.input.CharLimit = 40
			m.input.Focus()
			m.err = nil
			m.status = ""
		case key.Matches(msg, keys.Delete):
			if cat := m.selected(); cat != nil {
				if cat.IsBuiltin {
					m.err = fmt.Errorf("%s is a builtin category and cannot be deleted", cat.Name)
					return m, nil
				}
				m.confirmDelete = true
				m.err = nil
				m.status = ""
			}
		}
	}
	return m, nil
}

func (m categoryListModel) updateAdding(msg tea.KeyMsg, c *client.Client) (categoryListModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.adding = false
		return m, nil
	case "tab":
		if m.addType == ledger.Expense {
			m.addType = ledger.Income
		} else {
			m.addType = ledger.Expense
		}
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			m.err = ledger.ErrEmptyName
			return m, nil
		}
		m.adding = false
		typ := m.addType
		return m, func() tea.Msg {
			_, err := c.CreateCategory(context.Background(), &ledger.Category{Name: name, Type: typ})
			return categoryChangedMsg{status: "Category " + name + " created", err: err}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *categoryListModel) selected() *ledger.Category {
	if m.cursor >= 0 && m.cursor < len(m.categories) {
		return &m.categories[m.cursor]
	}
	return nil
}

func (m *categoryListModel) view() string {
	if m.loading {
		return "Loading categories..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Categories"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-8s %-24s %s", "TYPE", "NAME", "")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	maxRows := m.height - 6
	if maxRows < 1 {
		maxRows = 10
	}
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}
	for i := start; i < len(m.categories) && i < start+maxRows; i++ {
		cat := m.categories[i]
		mark := ""
		if cat.IsBuiltin {
			mark = dimStyle.Render("builtin")
		}
		line := fmt.Sprintf("  %-8s %-24s ", cat.Type, clip(cat.Name, 24))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+line[2:]) + mark)
		} else {
			b.WriteString(styleFor(cat.Type).Render(line) + mark)
		}
		b.WriteString("\n")
	}

	switch {
	case m.adding:
		b.WriteString("\n" + boxStyle.Render(fmt.Sprintf("New %s category: %s\n%s",
			m.addType, m.input.View(), dimStyle.Render("tab: switch type  enter: create  esc: cancel"))))
	case m.confirmDelete:
		if cat := m.selected(); cat != nil {
			b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("  Delete category %q? (y/n)", cat.Name)))
		}
	case m.err != nil:
		b.WriteString("\n" + errorStyle.Render("  "+m.err.Error()))
	case m.status != "":
		b.WriteString("\n" + successStyle.Render("  "+m.status))
	default:
		b.WriteString(fmt.Sprintf("\n  %d categories", len(m.categories)))
	}
	return b.String()
}
