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
	"github.com/simonvc/moneymanager/internal/money"
)

type jeStep int

const (
	jeStepType jeStep = iota
	jeStepAccount
	jeStepToAccount
	jeStepCategory
	jeStepAmount
	jeStepNote
	jeStepConfirm
)

type choicesForJEMsg struct {
	accounts   []ledger.Account
	categories []ledger.Category
	err        error
}

type txnCreatedMsg struct {
	txn *ledger.Transaction
	err error
}

// journalEntryModel records one income, expense or transfer. Transfers skip
// the category step; the others skip the destination account.
type journalEntryModel struct {
	step   jeStep
	cursor int

	txnType    ledger.TransactionType
	accountIdx int
	toIdx      int
	categoryID string

	amountInput textinput.Model
	noteInput   textinput.Model

	accounts   []ledger.Account
	categories []ledger.Category

	err       error
	done      bool
	cancelled bool
	statusMsg string
	width     int
}

func newJournalEntry() journalEntryModel {
	amtInput := textinput.New()
	amtInput.Placeholder = "e.g. 12.50"
	amtInput.CharLimit = 20

	noteInput := textinput.New()
	noteInput.Placeholder = "optional"
	noteInput.CharLimit = 200

	return journalEntryModel{
		step:        jeStepType,
		txnType:     ledger.Expense,
		amountInput: amtInput,
		noteInput:   noteInput,
	}
}

func (m *journalEntryModel) loadChoices(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		accounts, err := c.ListAccounts(ctx, "")
		if err != nil {
			return choicesForJEMsg{err: err}
		}
		cats, err := c.ListCategories(ctx, "")
		return choicesForJEMsg{accounts: accounts, categories: cats, err: err}
	}
}

// categoryChoices lists the categories matching the chosen type, preceded
// by an empty choice.
func (m journalEntryModel) categoryChoices() []ledger.Category {
	out := []ledger.Category{{Name: "(none)"}}
	for _, cat := range m.categories {
		if cat.Type == m.txnType {
			out = append(out, cat)
		}
	}
	return out
}

func (m journalEntryModel) update(msg tea.Msg, c *client.Client) (journalEntryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case choicesForJEMsg:
		m.accounts = msg.accounts
		m.categories = msg.categories
		m.err = msg.err
		return m, nil

	case txnCreatedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.step = jeStepConfirm
			return m, nil
		}
		m.done = true
		m.statusMsg = fmt.Sprintf("Recorded %s of %s", msg.txn.Type, money.FormatCents(msg.txn.Amount))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Escape) {
			m.cancelled = true
			return m, nil
		}

		switch m.step {
		case jeStepType:
			return m.updateChoice(msg, len(ledger.AllTransactionTypes), func(m *journalEntryModel, i int) {
				m.txnType = ledger.AllTransactionTypes[i]
				m.step = jeStepAccount
			})
		case jeStepAccount:
			return m.updateChoice(msg, len(m.accounts), func(m *journalEntryModel, i int) {
				m.accountIdx = i
				if m.txnType == ledger.Transfer {
					m.step = jeStepToAccount
				} else {
					m.step = jeStepCategory
				}
			})
		case jeStepToAccount:
			return m.updateChoice(msg, len(m.accounts), func(m *journalEntryModel, i int) {
				m.toIdx = i
				m.step = jeStepAmount
				m.amountInput.Focus()
			})
		case jeStepCategory:
			return m.updateChoice(msg, len(m.categoryChoices()), func(m *journalEntryModel, i int) {
				m.categoryID = m.categoryChoices()[i].ID
				m.step = jeStepAmount
				m.amountInput.Focus()
			})
		case jeStepAmount:
			return m.updateAmount(msg)
		case jeStepNote:
			return m.updateNote(msg)
		case jeStepConfirm:
			return m.updateConfirm(msg, c)
		}
	}
	return m, nil
}

// updateChoice moves the cursor over n options and calls pick on enter.
func (m journalEntryModel) updateChoice(msg tea.KeyMsg, n int, pick func(*journalEntryModel, int)) (journalEntryModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < n-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if n == 0 {
			m.err = fmt.Errorf("nothing to choose from")
			return m, nil
		}
		m.err = nil
		pick(&m, m.cursor)
		m.cursor = 0
	}
	return m, nil
}

func (m journalEntryModel) updateAmount(msg tea.KeyMsg) (journalEntryModel, tea.Cmd) {
	if key.Matches(msg, keys.Enter) {
		amount, err := money.Parse(m.amountInput.Value())
		if err != nil || !amount.IsPositive() {
			m.err = fmt.Errorf("amount must be a positive number")
			return m, nil
		}
		m.err = nil
		m.amountInput.Blur()
		m.noteInput.Focus()
		m.step = jeStepNote
		return m, nil
	}
	var cmd tea.Cmd
	m.amountInput, cmd = m.amountInput.Update(msg)
	return m, cmd
}

func (m journalEntryModel) updateNote(msg tea.KeyMsg) (journalEntryModel, tea.Cmd) {
	if key.Matches(msg, keys.Enter) {
		m.noteInput.Blur()
		m.step = jeStepConfirm
		return m, nil
	}
	var cmd tea.Cmd
	m.noteInput, cmd = m.noteInput.Update(msg)
	return m, cmd
}

func (m journalEntryModel) transaction() *ledger.Transaction {
	amount, _ := money.Parse(m.amountInput.Value())
	t := &ledger.Transaction{
		Type:      m.txnType,
		Amount:    amount,
		AccountID: m.accounts[m.accountIdx].ID,
		Note:      strings.TrimSpace(m.noteInput.Value()),
	}
	if m.txnType == ledger.Transfer {
		t.ToAccountID = m.accounts[m.toIdx].ID
	} else {
		t.CategoryID = m.categoryID
	}
	return t
}

func (m journalEntryModel) updateConfirm(msg tea.KeyMsg, c *client.Client) (journalEntryModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		txn := m.transaction()
		m.err = nil
		return m, func() tea.Msg {
			created, err := c.AddTransaction(context.Background(), txn)
			return txnCreatedMsg{txn: created, err: err}
		}
	case "n", "N":
		m.cancelled = true
	}
	return m, nil
}

func (m *journalEntryModel) view() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("New Transaction"))
	b.WriteString("\n")

	renderChoices := func(prompt string, labels []string) {
		b.WriteString(prompt + "\n\n")
		for i, l := range labels {
			if i == m.cursor {
				b.WriteString(selectedStyle.Render("> "+l) + "\n")
			} else {
				b.WriteString("  " + l + "\n")
			}
		}
	}
	accountLabels := func() []string {
		out := make([]string, len(m.accounts))
		for i, a := range m.accounts {
			out[i] = fmt.Sprintf("%-24s %s", clip(a.Name, 24), formatMoney(a.Balance, a.Currency))
		}
		return out
	}

	switch m.step {
	case jeStepType:
		labels := make([]string, len(ledger.AllTransactionTypes))
		for i, t := range ledger.AllTransactionTypes {
			labels[i] = string(t)
		}
		renderChoices("Type:", labels)
	case jeStepAccount:
		prompt := "Account:"
		if m.txnType == ledger.Transfer {
			prompt = "From account:"
		}
		renderChoices(prompt, accountLabels())
	case jeStepToAccount:
		renderChoices("To account:", accountLabels())
	case jeStepCategory:
		choices := m.categoryChoices()
		labels := make([]string, len(choices))
		for i, cat := range choices {
			labels[i] = cat.Name
		}
		renderChoices("Category:", labels)
	case jeStepAmount:
		b.WriteString("Amount:\n\n" + m.amountInput.View())
	case jeStepNote:
		b.WriteString("Note:\n\n" + m.noteInput.View())
	case jeStepConfirm:
		t := m.transaction()
		lines := []string{
			fmt.Sprintf("%s %s", labelStyle.Render("Type:"), styleFor(t.Type).Render(string(t.Type))),
			fmt.Sprintf("%s %s", labelStyle.Render("Amount:"), money.FormatCents(t.Amount)),
			fmt.Sprintf("%s %s", labelStyle.Render("Account:"), m.accounts[m.accountIdx].Name),
		}
		if t.Type == ledger.Transfer {
			lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("To:"), m.accounts[m.toIdx].Name))
		}
		if t.Note != "" {
			lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Note:"), t.Note))
		}
		b.WriteString(boxStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n\nRecord this transaction? (y/n)")
	}

	if m.err != nil {
		b.WriteString("\n\n" + errorStyle.Render(m.err.Error()))
	}
	b.WriteString("\n\n" + dimStyle.Render("esc: cancel"))
	return b.String()
}
