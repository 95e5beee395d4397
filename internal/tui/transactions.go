package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/simonvc/moneymanager/internal/client"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/money"
)

type txnsLoadedMsg struct {
	txns       []ledger.Transaction
	categories map[string]string
	err        error
}

type txnDeletedMsg struct {
	err error
}

type txnListModel struct {
	txns          []ledger.Transaction
	categories    map[string]string
	cursor        int
	loading       bool
	confirmDelete bool
	err           error
	width         int
	height        int
}

func (m *txnListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		ctx := context.Background()
		txns, err := c.ListTransactions(ctx, ledger.TransactionFilter{})
		if err != nil {
			return txnsLoadedMsg{err: err}
		}
		cats, err := c.ListCategories(ctx, "")
		names := make(map[string]string, len(cats))
		for _, cat := range cats {
			names[cat.ID] = cat.Name
		}
		return txnsLoadedMsg{txns: txns, categories: names, err: err}
	}
}

func (m txnListModel) update(msg tea.Msg, c *client.Client) (txnListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case txnsLoadedMsg:
		m.loading = false
		m.txns = msg.txns
		m.categories = msg.categories
		m.err = msg.err
		if m.cursor >= len(m.txns) {
			m.cursor = max(len(m.txns)-1, 0)
		}

	case txnDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		cmd := m.init(c)
		return m, cmd

	case tea.KeyMsg:
		if m.confirmDelete {
			m.confirmDelete = false
			if id := m.selectedID(); id != "" && (msg.String() == "y" || msg.String() == "Y") {
				return m, func() tea.Msg {
					return txnDeletedMsg{err: c.DeleteTransaction(context.Background(), id)}
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
			if m.cursor < len(m.txns)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Delete):
			if m.selectedID() != "" {
				m.confirmDelete = true
				m.err = nil
			}
		}
	}
	return m, nil
}

func (m *txnListModel) selectedID() string {
	if m.cursor >= 0 && m.cursor < len(m.txns) {
		return m.txns[m.cursor].ID
	}
	return ""
}

func (m *txnListModel) categoryName(id string) string {
	if id == "" {
		return ""
	}
	if name, ok := m.categories[id]; ok {
		return name
	}
	return "(deleted)"
}

func (m *txnListModel) view() string {
	if m.loading {
		return "Loading transactions..."
	}
	if m.err != nil && len(m.txns) == 0 {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.txns) == 0 {
		return dimStyle.Render("No transactions found. Press 't' to record one.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Transactions"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-16s %-9s %-14s %12s  %s", "DATE", "TYPE", "CATEGORY", "AMOUNT", "NOTE")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	maxRows := m.height - 4
	if maxRows < 1 {
		maxRows = 10
	}

	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}

	for i := start; i < len(m.txns) && i < start+maxRows; i++ {
		t := m.txns[i]
		line := fmt.Sprintf("  %-16s %-9s %-14s %12s  %s",
			t.Date.Format("2006-01-02 15:04"),
			t.Type,
			clip(m.categoryName(t.CategoryID), 14),
			money.FormatCents(t.Amount),
			clip(t.Note, 30),
		)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(styleFor(t.Type).Render(line))
		}
		b.WriteString("\n")
	}

	switch {
	case m.confirmDelete:
		b.WriteString("\n" + errorStyle.Render("  Delete this transaction? (y/n)"))
	case m.err != nil:
		b.WriteString("\n" + errorStyle.Render("  "+m.err.Error()))
	default:
		b.WriteString(fmt.Sprintf("\n  %d transactions", len(m.txns)))
	}
	return b.String()
}
