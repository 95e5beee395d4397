package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/simonvc/moneymanager/internal/client"
	"github.com/simonvc/moneymanager/internal/ledger"
)

const accountDetailRows = 30

type accountDetailLoadedMsg struct {
	account *ledger.Account
	txns    []ledger.Transaction
	err     error
}

type accountRecomputedMsg struct {
	balance *client.BalanceResponse
	err     error
}

type accountDetailModel struct {
	account *ledger.Account
	txns    []ledger.Transaction
	loading bool
	status  string
	err     error
	width   int
}

func (m *accountDetailModel) init(c *client.Client, id string) tea.Cmd {
	m.loading = true
	m.status = ""
	return func() tea.Msg {
		acct, err := c.GetAccount(context.Background(), id)
		if err != nil {
			return accountDetailLoadedMsg{err: err}
		}
		txns, err := c.ListTransactions(context.Background(), ledger.TransactionFilter{AccountID: id, Limit: accountDetailRows})
		return accountDetailLoadedMsg{account: acct, txns: txns, err: err}
	}
}

func (m *accountDetailModel) recompute(c *client.Client) tea.Cmd {
	if m.account == nil {
		return nil
	}
	id := m.account.ID
	return func() tea.Msg {
		bal, err := c.RecomputeBalance(context.Background(), id)
		return accountRecomputedMsg{balance: bal, err: err}
	}
}

func (m accountDetailModel) update(msg tea.Msg) (accountDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountDetailLoadedMsg:
		m.loading = false
		m.account = msg.account
		m.txns = msg.txns
		m.err = msg.err
	case accountRecomputedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = "Balance recomputed: " + msg.balance.Formatted
		}
	}
	return m, nil
}

func (m *accountDetailModel) view() string {
	if m.loading {
		return "Loading account..."
	}
	if m.err != nil && m.account == nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.account == nil {
		return ""
	}

	var b strings.Builder
	a := m.account

	b.WriteString(titleStyle.Render("Account: " + a.Name))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("ID:"), a.ID))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Type:"), ledger.AccountTypeLabel(a.Type)))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Currency:"), a.Currency))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Balance:"), formatMoney(a.Balance, a.Currency)))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Created:"), a.CreatedAt.Format("2006-01-02 15:04")))
	b.WriteString("\n")

	if len(m.txns) == 0 {
		b.WriteString(dimStyle.Render("  No transactions."))
	} else {
		header := fmt.Sprintf("  %-16s %-9s %14s  %s", "DATE", "TYPE", "EFFECT", "NOTE")
		b.WriteString(headerStyle.Render(header))
		b.WriteString("\n")

		for _, t := range m.txns {
			effect := t.EffectOn(a.ID)
			amt := formatMoney(effect, a.Currency)
			if effect.IsPositive() {
				amt = "+" + amt
			}
			line := fmt.Sprintf("  %-16s %-9s %14s  %s", t.Date.Format("2006-01-02 15:04"), t.Type, amt, clip(t.Note, 30))
			b.WriteString(styleFor(t.Type).Render(line))
			b.WriteString("\n")
		}
		if len(m.txns) == accountDetailRows {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  (latest %d shown)", accountDetailRows)) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  "+m.err.Error()))
	} else if m.status != "" {
		b.WriteString("\n" + successStyle.Render("  "+m.status))
	}
	b.WriteString("\n" + dimStyle.Render("  r: recompute balance  esc: back"))
	return b.String()
}
