package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/simonvc/moneymanager/internal/client"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/money"
	"github.com/simonvc/moneymanager/internal/stats"
)

type statsUpdate struct {
	sum *stats.Summary
	err error
}

type statsUpdateMsg struct {
	statsUpdate
	gen int
}

// statsModel keeps one live subscription open for the period on screen.
// Moving to another period cancels it and opens a new one; gen tells the
// messages of the two apart.
type statsModel struct {
	dim     stats.Dimension
	ref     time.Time
	sum     *stats.Summary
	updates chan statsUpdate
	cancel  context.CancelFunc
	gen     int
	loading bool
	err     error
	width   int
	height  int
}

func (m *statsModel) init(c *client.Client) tea.Cmd {
	if m.dim == "" {
		m.dim = stats.Month
	}
	if m.ref.IsZero() {
		m.ref = time.Now()
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.gen++
	m.loading = m.sum == nil
	m.err = nil

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	updates := make(chan statsUpdate, 1)
	m.updates = updates

	dim, ref := m.dim, m.ref
	go func() {
		defer close(updates)
		err := c.WatchStats(ctx, dim, ref, func(s *stats.Summary) {
			select {
			case updates <- statsUpdate{sum: s}:
			default:
				select {
				case <-updates:
				default:
				}
				updates <- statsUpdate{sum: s}
			}
		})
		if err != nil {
			select {
			case updates <- statsUpdate{err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return waitForStats(updates, m.gen)
}

func waitForStats(ch <-chan statsUpdate, gen int) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return statsUpdateMsg{statsUpdate: u, gen: gen}
	}
}

func (m *statsModel) stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m statsModel) update(msg tea.Msg, c *client.Client) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsUpdateMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.sum = msg.sum
		m.err = nil
		return m, waitForStats(m.updates, m.gen)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			return m.shift(c, -1)
		case key.Matches(msg, keys.Right):
			return m.shift(c, 1)
		case key.Matches(msg, keys.Dimension):
			m.dim = nextDimension(m.dim)
			cmd := m.init(c)
			return m, cmd
		case key.Matches(msg, keys.Refresh):
			m.ref = time.Now()
			cmd := m.init(c)
			return m, cmd
		}
	}
	return m, nil
}

func (m statsModel) shift(c *client.Client, n int) (statsModel, tea.Cmd) {
	ref, err := stats.Shift(m.dim, m.ref, n)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.ref = ref
	cmd := m.init(c)
	return m, cmd
}

func nextDimension(d stats.Dimension) stats.Dimension {
	for i, dim := range stats.Dimensions {
		if dim == d {
			return stats.Dimensions[(i+1)%len(stats.Dimensions)]
		}
	}
	return stats.Month
}

func (m *statsModel) view() string {
	if m.loading {
		return "Loading statistics..."
	}
	if m.sum == nil {
		if m.err != nil {
			return errorStyle.Render("Error: " + m.err.Error())
		}
		return dimStyle.Render("No data available.")
	}

	s := m.sum
	var b strings.Builder
	w := m.width
	if w < 60 {
		w = 80
	}

	title := strings.ToUpper(string(s.Dimension))
	if s.Dimension != stats.All {
		title += "  " + s.Range.Start.Format("2006-01-02") + " .. " + s.Range.End.Format("2006-01-02")
	}
	b.WriteString(titleStyle.Render(centerStr(title, w)))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("    %-12s %s\n", "Income", incomeStyle.Render(money.FormatCents(s.TotalIncome))))
	b.WriteString(fmt.Sprintf("    %-12s %s\n", "Expense", expenseStyle.Render(money.FormatCents(s.TotalExpense))))
	bal := money.FormatCents(s.Balance)
	if s.Balance.IsNegative() {
		bal = expenseStyle.Render(bal)
	}
	b.WriteString(fmt.Sprintf("    %-12s %s\n", "Balance", bal))
	b.WriteString(fmt.Sprintf("    %-12s %d\n\n", "Records", s.Count))

	if line := sparkline(s.Daily, w-8); line != "" {
		b.WriteString("    " + expenseStyle.Render(line) + "\n")
		b.WriteString(dimStyle.Render("    daily expense") + "\n\n")
	}

	renderBreakdown(&b, "Expense by category", s.Expense, w)
	renderBreakdown(&b, "Income by category", s.Income, w)

	if m.err != nil {
		b.WriteString(errorStyle.Render("  "+m.err.Error()) + "\n")
	}
	b.WriteString(dimStyle.Render("  h/l: previous/next period  p: day/week/month/year/all  r: today"))
	return b.String()
}

func renderBreakdown(b *strings.Builder, title string, bd stats.Breakdown, w int) {
	b.WriteString(fmt.Sprintf("  %s\n", headerStyle.Render(title)))
	if len(bd.Categories) == 0 {
		b.WriteString(dimStyle.Render("    (no entries)") + "\n\n")
		return
	}
	barW := w - 48
	if barW < 10 {
		barW = 10
	}
	hundred := decimal.NewFromInt(100)
	for _, cv := range bd.Categories {
		share := decimal.Zero
		if !bd.Total.IsZero() {
			share = cv.Value.Div(bd.Total)
		}
		n := int(share.Mul(decimal.NewFromInt(int64(barW))).Round(0).IntPart())
		bar := strings.Repeat("█", n) + strings.Repeat("░", barW-n)
		b.WriteString(fmt.Sprintf("    %-16s %12s %5s%% %s\n",
			clip(cv.Name, 16), money.FormatCents(cv.Value), share.Mul(hundred).StringFixed(1), dimStyle.Render(bar)))
	}
	b.WriteString("\n")
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// sparkline renders the expense side of a daily series, one rune per day.
// Series wider than w are not drawn.
func sparkline(daily []stats.DailyPoint, w int) string {
	if len(daily) < 2 || len(daily) > w {
		return ""
	}
	peak := decimal.Zero
	for _, p := range daily {
		if p.Expense.GreaterThan(peak) {
			peak = p.Expense
		}
	}
	if peak.IsZero() {
		return ""
	}
	top := decimal.NewFromInt(int64(len(sparkBlocks) - 1))
	out := make([]rune, len(daily))
	for i, p := range daily {
		out[i] = sparkBlocks[p.Expense.Div(peak).Mul(top).Round(0).IntPart()]
	}
	return string(out)
}

func formatMoney(amount decimal.Decimal, currency string) string {
	s := money.FormatCents(amount)
	sym := ledger.CurrencySymbol(currency)
	if strings.HasPrefix(s, "-") {
		return "-" + sym + s[1:]
	}
	return sym + s
}

func styleFor(t ledger.TransactionType) lipgloss.Style {
	switch t {
	case ledger.Income:
		return incomeStyle
	case ledger.Expense:
		return expenseStyle
	default:
		return transferStyle
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-2]) + ".."
}

func centerStr(s string, w int) string {
	n := len([]rune(s))
	if n >= w {
		return s
	}
	return strings.Repeat(" ", (w-n)/2) + s
}
