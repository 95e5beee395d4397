package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/simonvc/moneymanager/internal/client"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/money"
)

type txnDetailLoadedMsg struct {
	txn      *ledger.Transaction
	accounts map[string]string
	category string
	err      error
}

type txnDetailModel struct {
	txn      *ledger.Transaction
	accounts map[string]string
	category string
	loading  bool
	err      error
	width    int
}

func (m *txnDetailModel) init(c *client.Client, id string) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		ctx := context.Background()
		txn, err := c.GetTransaction(ctx, id)
		if err != nil {
			return txnDetailLoadedMsg{err: err}
		}
		accounts, err := c.ListAccounts(ctx, "")
		if err != nil {
			return txnDetailLoadedMsg{txn: txn, err: err}
		}
		names := make(map[string]string, len(accounts))
		for _, a := range accounts {
			names[a.ID] = a.Name
		}
		msg := txnDetailLoadedMsg{txn: txn, accounts: names}
		if txn.CategoryID != "" {
			cats, err := c.ListCategories(ctx, txn.Type)
			if err != nil {
				msg.err = err
				return msg
			}
			msg.category = "(deleted)"
			for _, cat := range cats {
				if cat.ID == txn.CategoryID {
					msg.category = cat.Name
				}
			}
		}
		return msg
	}
}

func (m txnDetailModel) update(msg tea.Msg) (txnDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case txnDetailLoadedMsg:
		m.loading = false
		m.txn = msg.txn
		m.accounts = msg.accounts
		m.category = msg.category
		m.err = msg.err
	}
	return m, nil
}

func (m *txnDetailModel) view() string {
	if m.loading {
		return "Loading transaction..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.txn == nil {
		return ""
	}
	t := m.txn

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Transaction: %s", t.ID)))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Type:"), styleFor(t.Type).Render(string(t.Type))))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Amount:"), money.FormatCents(t.Amount)))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Date:"), t.Date.Format("2006-01-02 15:04:05")))
	if t.Type == ledger.Transfer {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("From:"), m.accountName(t.AccountID)))
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("To:"), m.accountName(t.ToAccountID)))
	} else {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Account:"), m.accountName(t.AccountID)))
	}
	if m.category != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Category:"), m.category))
	}
	if t.Note != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Note:"), t.Note))
	}
	if len(t.Tags) > 0 {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Tags:"), strings.Join(t.Tags, ", ")))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Updated:"), t.UpdatedAt.Format("2006-01-02 15:04:05")))

	b.WriteString("\n" + dimStyle.Render("  Press ESC to go back"))
	return b.String()
}

func (m *txnDetailModel) accountName(id string) string {
	if name, ok := m.accounts[id]; ok {
		return name
	}
	return id
}
