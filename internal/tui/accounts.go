package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/simonvc/moneymanager/internal/client"
	"github.com/simonvc/moneymanager/internal/ledger"
)

type accountsLoadedMsg struct {
	accounts []ledger.Account
	err      error
}

// accountDeleteConfirmedMsg is sent when the user confirms deletion in the TUI.
type accountDeleteConfirmedMsg struct {
	id      string
	cascade bool
}

// accountDeletedMsg is sent after the server processes the delete.
type accountDeletedMsg struct {
	id  string
	err error
}

type accountListModel struct {
	accounts       []ledger.Account
	cursor         int
	loading        bool
	err            error
	width          int
	height         int
	confirmDelete  bool
	deleteTargetID string
}

func (m *accountListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		accounts, err := c.ListAccounts(context.Background(), "")
		return accountsLoadedMsg{accounts: accounts, err: err}
	}
}

func (m accountListModel) update(msg tea.Msg) (accountListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountsLoadedMsg:
		m.loading = false
		m.accounts = msg.accounts
		m.err = msg.err
		if m.cursor >= len(m.accounts) {
			m.cursor = max(len(m.accounts)-1, 0)
		}

	case accountDeletedMsg:
		m.confirmDelete = false
		m.deleteTargetID = ""
		if msg.err != nil {
			m.err = msg.err
		}

	case tea.KeyMsg:
		if m.confirmDelete {
			id := m.deleteTargetID
			m.confirmDelete = false
			m.deleteTargetID = ""
			switch msg.String() {
			case "y", "Y":
				return m, func() tea.Msg { return accountDeleteConfirmedMsg{id: id} }
			case "a", "A":
				return m, func() tea.Msg { return accountDeleteConfirmedMsg{id: id, cascade: true} }
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.accounts)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Delete):
			if id := m.selectedID(); id != "" {
				m.confirmDelete = true
				m.deleteTargetID = id
				m.err = nil
			}
		}
	}
	return m, nil
}

func (m *accountListModel) selectedID() string {
	if m.cursor >= 0 && m.cursor < len(m.accounts) {
		return m.accounts[m.cursor].ID
	}
	return ""
}

func (m *accountListModel) selectedName() string {
	if m.cursor >= 0 && m.cursor < len(m.accounts) {
		return m.accounts[m.cursor].Name
	}
	return ""
}

func (m *accountListModel) view() string {
	if m.loading {
		return "Loading accounts..."
	}
	if len(m.accounts) == 0 {
		if m.err != nil {
			return errorStyle.Render("Error: " + m.err.Error())
		}
		return dimStyle.Render("No accounts found. Press 'n' to create one.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Accounts"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-24s %-14s %-4s %16s", "NAME", "TYPE", "CCY", "BALANCE")
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

	for i := start; i < len(m.accounts) && i < start+maxRows; i++ {
		a := m.accounts[i]
		line := fmt.Sprintf("  %-24s %-14s %-4s %16s",
			clip(a.Name, 24), ledger.AccountTypeLabel(a.Type), a.Currency, formatMoney(a.Balance, a.Currency))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	switch {
	case m.confirmDelete:
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("  Delete account %q? (y = delete, a = delete with its transactions, other = cancel)", m.selectedName())))
	case m.err != nil:
		b.WriteString("\n" + errorStyle.Render("  "+m.err.Error()))
	default:
		b.WriteString(fmt.Sprintf("\n  %d accounts", len(m.accounts)))
	}

	return b.String()
}
