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

type wizardStep int

const (
	stepName wizardStep = iota
	stepType
	stepCurrency
	stepConfirm
)

type accountCreatedMsg struct {
	account *ledger.Account
	err     error
}

// wizardModel walks through creating an account one field at a time.
type wizardModel struct {
	step       wizardStep
	name       textinput.Model
	typeCursor int
	currency   int // index into curOptions
	curOptions []string

	err       error
	done      bool
	cancelled bool
	statusMsg string
	width     int
}

func newWizard(defaultCurrency string) wizardModel {
	nameInput := textinput.New()
	nameInput.Placeholder = "e.g. Wallet"
	nameInput.CharLimit = 60
	nameInput.Focus()

	opts := ledger.CurrencyCodes()
	cur := 0
	for i, code := range opts {
		if code == defaultCurrency {
			cur = i
		}
	}
	return wizardModel{
		step:       stepName,
		name:       nameInput,
		currency:   cur,
		curOptions: opts,
	}
}

func (m wizardModel) update(msg tea.Msg, c *client.Client) (wizardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountCreatedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.step = stepConfirm
			return m, nil
		}
		m.done = true
		m.statusMsg = fmt.Sprintf("Account %s created", msg.account.Name)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Escape) {
			m.cancelled = true
			return m, nil
		}

		switch m.step {
		case stepName:
			return m.updateName(msg)
		case stepType:
			return m.updateType(msg)
		case stepCurrency:
			return m.updateCurrency(msg)
		case stepConfirm:
			return m.updateConfirm(msg, c)
		}
	}
	return m, nil
}

func (m wizardModel) updateName(msg tea.KeyMsg) (wizardModel, tea.Cmd) {
	if key.Matches(msg, keys.Enter) {
		if strings.TrimSpace(m.name.Value()) == "" {
			m.err = fmt.Errorf("name is required")
			return m, nil
		}
		m.err = nil
		m.name.Blur()
		m.step = stepType
		return m, nil
	}

	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return m, cmd
}

func (m wizardModel) updateType(msg tea.KeyMsg) (wizardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.typeCursor > 0 {
			m.typeCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.typeCursor < len(ledger.AllAccountTypes)-1 {
			m.typeCursor++
		}
	case key.Matches(msg, keys.Enter):
		m.step = stepCurrency
	}
	return m, nil
}

func (m wizardModel) updateCurrency(msg tea.KeyMsg) (wizardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.currency > 0 {
			m.currency--
		}
	case key.Matches(msg, keys.Down):
		if m.currency < len(m.curOptions)-1 {
			m.currency++
		}
	case key.Matches(msg, keys.Enter):
		m.step = stepConfirm
	}
	return m, nil
}

func (m wizardModel) updateConfirm(msg tea.KeyMsg, c *client.Client) (wizardModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		acct := &ledger.Account{
			Name:     strings.TrimSpace(m.name.Value()),
			Type:     ledger.AllAccountTypes[m.typeCursor],
			Currency: m.curOptions[m.currency],
		}
		m.err = nil
		return m, func() tea.Msg {
			created, err := c.CreateAccount(context.Background(), acct)
			return accountCreatedMsg{account: created, err: err}
		}
	case "n", "N", "backspace":
		m.step = stepName
		m.name.Focus()
	}
	return m, nil
}

func (m *wizardModel) view() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("New Account"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Step %d of 4", int(m.step)+1)))
	b.WriteString("\n\n")

	switch m.step {
	case stepName:
		b.WriteString("Account name:\n\n")
		b.WriteString(m.name.View())
	case stepType:
		b.WriteString("Account type:\n\n")
		for i, t := range ledger.AllAccountTypes {
			line := "  " + ledger.AccountTypeLabel(t)
			if i == m.typeCursor {
				line = selectedStyle.Render("> " + ledger.AccountTypeLabel(t))
			}
			b.WriteString(line + "\n")
		}
	case stepCurrency:
		b.WriteString("Currency:\n\n")
		for i, code := range m.curOptions {
			line := fmt.Sprintf("  %s  %s", code, ledger.CurrencySymbol(code))
			if i == m.currency {
				line = selectedStyle.Render(fmt.Sprintf("> %s  %s", code, ledger.CurrencySymbol(code)))
			}
			b.WriteString(line + "\n")
		}
	case stepConfirm:
		summary := fmt.Sprintf("%s %s\n%s %s\n%s %s",
			labelStyle.Render("Name:"), strings.TrimSpace(m.name.Value()),
			labelStyle.Render("Type:"), ledger.AccountTypeLabel(ledger.AllAccountTypes[m.typeCursor]),
			labelStyle.Render("Currency:"), m.curOptions[m.currency])
		b.WriteString(boxStyle.Render(summary))
		b.WriteString("\n\nCreate this account? (y/n)")
	}

	if m.err != nil {
		b.WriteString("\n\n" + errorStyle.Render(m.err.Error()))
	}
	b.WriteString("\n\n" + dimStyle.Render("esc: cancel"))
	return b.String()
}
