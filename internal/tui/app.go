package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/simonvc/moneymanager/internal/client"
)

type mode int

const (
	modeAccountList mode = iota
	modeAccountDetail
	modeTransactionList
	modeTransactionDetail
	modeStats
	modeCategories
	modeWizard
	modeJournalEntry
)

var tabModes = []mode{modeAccountList, modeTransactionList, modeStats, modeCategories}

func tabLabel(m mode) string {
	switch m {
	case modeAccountList:
		return "Accounts"
	case modeTransactionList:
		return "Transactions"
	case modeStats:
		return "Statistics"
	case modeCategories:
		return "Categories"
	default:
		return ""
	}
}

type App struct {
	client          *client.Client
	defaultCurrency string
	mode            mode
	tabIndex        int
	width, height   int
	err             error
	statusMsg       string

	accountList   accountListModel
	accountDetail accountDetailModel
	txnList       txnListModel
	txnDetail     txnDetailModel
	stats         statsModel
	categories    categoryListModel
	wizard        wizardModel
	journalEntry  journalEntryModel
}

// NewApp builds the terminal UI around c. New accounts default to
// defaultCurrency.
func NewApp(c *client.Client, defaultCurrency string) *App {
	return &App{
		client:          c,
		defaultCurrency: defaultCurrency,
		mode:            modeAccountList,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.accountList.init(a.client),
		a.txnList.init(a.client),
		a.stats.init(a.client),
		a.categories.init(a.client),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.accountList.width = msg.Width
		a.accountList.height = msg.Height - 6
		a.txnList.width = msg.Width
		a.txnList.height = msg.Height - 6
		a.stats.width = msg.Width
		a.stats.height = msg.Height - 6
		a.categories.width = msg.Width
		a.categories.height = msg.Height - 6
		a.accountDetail.width = msg.Width
		a.txnDetail.width = msg.Width
		a.wizard.width = msg.Width
		a.journalEntry.width = msg.Width
		return a, nil
	}

	// Data messages go to their sub-model whatever the active mode is; Init
	// loads every tab at once.
	switch typedMsg := msg.(type) {
	case accountsLoadedMsg:
		var cmd tea.Cmd
		a.accountList, cmd = a.accountList.update(msg)
		return a, cmd
	case txnsLoadedMsg, txnDeletedMsg:
		var cmd tea.Cmd
		a.txnList, cmd = a.txnList.update(msg, a.client)
		if _, ok := msg.(txnDeletedMsg); ok {
			cmd = tea.Batch(cmd, a.accountList.init(a.client))
		}
		return a, cmd
	case statsUpdateMsg:
		var cmd tea.Cmd
		a.stats, cmd = a.stats.update(msg, a.client)
		return a, cmd
	case categoriesLoadedMsg, categoryChangedMsg:
		var cmd tea.Cmd
		a.categories, cmd = a.categories.update(msg, a.client)
		return a, cmd
	case accountDetailLoadedMsg, accountRecomputedMsg:
		var cmd tea.Cmd
		a.accountDetail, cmd = a.accountDetail.update(msg)
		return a, cmd
	case txnDetailLoadedMsg:
		var cmd tea.Cmd
		a.txnDetail, cmd = a.txnDetail.update(msg)
		return a, cmd
	case accountDeleteConfirmedMsg:
		id, cascade := typedMsg.id, typedMsg.cascade
		return a, func() tea.Msg {
			err := a.client.DeleteAccount(context.Background(), id, cascade)
			return accountDeletedMsg{id: id, err: err}
		}
	case accountDeletedMsg:
		a.accountList, _ = a.accountList.update(msg)
		if typedMsg.err != nil {
			return a, nil
		}
		a.statusMsg = "Account deleted"
		return a, tea.Batch(
			a.accountList.init(a.client),
			a.txnList.init(a.client),
		)
	}

	// Modal modes: delegate ALL message types (not just keys)
	if a.mode == modeWizard {
		var cmd tea.Cmd
		a.wizard, cmd = a.wizard.update(msg, a.client)
		if a.wizard.done {
			a.mode = modeAccountList
			a.statusMsg = a.wizard.statusMsg
			return a, a.accountList.init(a.client)
		}
		if a.wizard.cancelled {
			a.mode = modeAccountList
			a.statusMsg = "Account creation cancelled"
		}
		return a, cmd
	}

	if a.mode == modeJournalEntry {
		var cmd tea.Cmd
		a.journalEntry, cmd = a.journalEntry.update(msg, a.client)
		if a.journalEntry.done {
			a.mode = modeTransactionList
			a.statusMsg = a.journalEntry.statusMsg
			return a, tea.Batch(a.txnList.init(a.client), a.accountList.init(a.client))
		}
		if a.journalEntry.cancelled {
			a.mode = modeTransactionList
			a.statusMsg = "Transaction cancelled"
		}
		return a, cmd
	}

	// Inline prompts take every key, including tab and q.
	if _, isKey := msg.(tea.KeyMsg); isKey {
		switch {
		case a.mode == modeAccountList && a.accountList.confirmDelete:
			var cmd tea.Cmd
			a.accountList, cmd = a.accountList.update(msg)
			return a, cmd
		case a.mode == modeTransactionList && a.txnList.confirmDelete:
			var cmd tea.Cmd
			a.txnList, cmd = a.txnList.update(msg, a.client)
			return a, cmd
		case a.mode == modeCategories && a.categories.busy():
			var cmd tea.Cmd
			a.categories, cmd = a.categories.update(msg, a.client)
			return a, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			a.stats.stop()
			return a, tea.Quit

		case key.Matches(msg, keys.Tab):
			a.tabIndex = (a.tabIndex + 1) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg = ""
			return a, a.refreshTab()

		case key.Matches(msg, keys.ShiftTab):
			a.tabIndex = (a.tabIndex - 1 + len(tabModes)) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg = ""
			return a, a.refreshTab()

		case key.Matches(msg, keys.Escape):
			switch a.mode {
			case modeAccountDetail:
				a.mode = modeAccountList
				return a, a.accountList.init(a.client)
			case modeTransactionDetail:
				a.mode = modeTransactionList
			}
			return a, nil

		case key.Matches(msg, keys.New):
			if a.mode == modeAccountList {
				a.mode = modeWizard
				a.wizard = newWizard(a.defaultCurrency)
				return a, nil
			}

		case key.Matches(msg, keys.NewTxn):
			if a.mode == modeTransactionList || a.mode == modeAccountList {
				a.mode = modeJournalEntry
				a.journalEntry = newJournalEntry()
				return a, a.journalEntry.loadChoices(a.client)
			}

		case key.Matches(msg, keys.Refresh):
			if a.mode == modeAccountDetail {
				return a, a.accountDetail.recompute(a.client)
			}

		case key.Matches(msg, keys.Enter):
			switch a.mode {
			case modeAccountList:
				if acctID := a.accountList.selectedID(); acctID != "" {
					a.mode = modeAccountDetail
					return a, a.accountDetail.init(a.client, acctID)
				}
				return a, nil
			case modeTransactionList:
				if txnID := a.txnList.selectedID(); txnID != "" {
					a.mode = modeTransactionDetail
					return a, a.txnDetail.init(a.client, txnID)
				}
				return a, nil
			}
		}
	}

	// Delegate update to active sub-model
	var cmd tea.Cmd
	switch a.mode {
	case modeAccountList:
		a.accountList, cmd = a.accountList.update(msg)
	case modeAccountDetail:
		a.accountDetail, cmd = a.accountDetail.update(msg)
	case modeTransactionList:
		a.txnList, cmd = a.txnList.update(msg, a.client)
	case modeTransactionDetail:
		a.txnDetail, cmd = a.txnDetail.update(msg)
	case modeStats:
		a.stats, cmd = a.stats.update(msg, a.client)
	case modeCategories:
		a.categories, cmd = a.categories.update(msg, a.client)
	}
	return a, cmd
}

// refreshTab reloads the tab being switched to. Statistics stay live through
// their own subscription and need no reload.
func (a *App) refreshTab() tea.Cmd {
	switch a.mode {
	case modeAccountList:
		return a.accountList.init(a.client)
	case modeTransactionList:
		return a.txnList.init(a.client)
	case modeCategories:
		return a.categories.init(a.client)
	}
	return nil
}

func (a *App) View() string {
	tabs := ""
	for i, m := range tabModes {
		label := tabLabel(m)
		if i == a.tabIndex && a.mode != modeWizard && a.mode != modeJournalEntry {
			tabs += activeTabStyle.Render(label)
		} else {
			tabs += inactiveTabStyle.Render(label)
		}
		if i < len(tabModes)-1 {
			tabs += " "
		}
	}

	var content string
	switch a.mode {
	case modeAccountList:
		content = a.accountList.view()
	case modeAccountDetail:
		content = a.accountDetail.view()
	case modeTransactionList:
		content = a.txnList.view()
	case modeTransactionDetail:
		content = a.txnDetail.view()
	case modeStats:
		content = a.stats.view()
	case modeCategories:
		content = a.categories.view()
	case modeWizard:
		content = a.wizard.view()
	case modeJournalEntry:
		content = a.journalEntry.view()
	}

	status := ""
	if a.statusMsg != "" {
		status = successStyle.Render(a.statusMsg)
	}
	if a.err != nil {
		status = errorStyle.Render(a.err.Error())
	}

	helpText := dimStyle.Render("tab:switch  enter:select  esc:back  n:new  d:delete  t:new txn  q:quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		tabs,
		"",
		content,
		"",
		status,
		helpText,
	)
}
