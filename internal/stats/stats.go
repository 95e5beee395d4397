// Package stats aggregates income and expense over calendar periods: totals,
// a per-day series and per-category breakdowns with the long tail folded
// into a single entry.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/money"
)

const (
	OtherID         = "other"
	OtherName       = "Other"
	UncategorizedID = "uncategorized"

	// DenseLimitDays is the longest range that gets a bucket for every day.
	DenseLimitDays = 5 * 365
)

// FoldShare is the fraction of a type's total below which a category is
// folded into the other entry.
var FoldShare = decimal.RequireFromString("0.025")

type DailyPoint struct {
	Date    string          `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

type CategoryValue struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Color string          `json:"color"`
	Value decimal.Decimal `json:"value"`
}

// Breakdown splits a type's total by category. Categories holds the entries
// at or above the threshold, largest first, followed by the other entry when
// anything was folded. Folded holds what went into other, largest first.
type Breakdown struct {
	Total      decimal.Decimal `json:"total"`
	Threshold  decimal.Decimal `json:"threshold"`
	Categories []CategoryValue `json:"categories"`
	Folded     []CategoryValue `json:"folded,omitempty"`
}

// Other returns the folded entry, if any.
func (b *Breakdown) Other() (CategoryValue, bool) {
	if n := len(b.Categories); n > 0 && b.Categories[n-1].ID == OtherID {
		return b.Categories[n-1], true
	}
	return CategoryValue{}, false
}

type Summary struct {
	Dimension    Dimension       `json:"dimension"`
	Range        Range           `json:"range"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
	Count        int             `json:"count"`
	Daily        []DailyPoint    `json:"daily"`
	Expense      Breakdown       `json:"expense"`
	Income       Breakdown       `json:"income"`
}

type dayTotals struct {
	income, expense decimal.Decimal
}

// Compute aggregates the income and expense transactions of txns that fall
// inside r. Transfers move money between accounts and are left out. Day
// buckets use r.Start's location.
func Compute(dim Dimension, r Range, txns []ledger.Transaction, cats []ledger.Category) *Summary {
	loc := r.Start.Location()

	inRange := make([]ledger.Transaction, 0, len(txns))
	for _, t := range txns {
		if r.Contains(t.Date) && t.Type != ledger.Transfer {
			inRange = append(inRange, t)
		}
	}
	sort.SliceStable(inRange, func(i, j int) bool {
		if !inRange[i].Date.Equal(inRange[j].Date) {
			return inRange[i].Date.Before(inRange[j].Date)
		}
		return inRange[i].ID < inRange[j].ID
	})

	sum := &Summary{
		Dimension:    dim,
		Range:        r,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		Count:        len(inRange),
	}
	days := make(map[string]*dayTotals)
	var income, expense []ledger.Transaction

	for _, t := range inRange {
		key := t.Date.In(loc).Format(time.DateOnly)
		d, ok := days[key]
		if !ok {
			d = &dayTotals{income: decimal.Zero, expense: decimal.Zero}
			days[key] = d
		}
		switch t.Type {
		case ledger.Income:
			sum.TotalIncome = money.Add(sum.TotalIncome, t.Amount)
			d.income = money.Add(d.income, t.Amount)
			income = append(income, t)
		case ledger.Expense:
			sum.TotalExpense = money.Add(sum.TotalExpense, t.Amount)
			d.expense = money.Add(d.expense, t.Amount)
			expense = append(expense, t)
		}
	}
	sum.Balance = money.Subtract(sum.TotalIncome, sum.TotalExpense)
	sum.Daily = dailySeries(r, days)
	sum.Expense = BreakdownOf(expense, cats)
	sum.Income = BreakdownOf(income, cats)
	return sum
}

func dailySeries(r Range, days map[string]*dayTotals) []DailyPoint {
	if r.Days() > DenseLimitDays {
		keys := make([]string, 0, len(days))
		for k := range days {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]DailyPoint, 0, len(keys))
		for _, k := range keys {
			out = append(out, DailyPoint{Date: k, Income: days[k].income, Expense: days[k].expense})
		}
		return out
	}

	var out []DailyPoint
	y, m, d := r.Start.Date()
	for day := time.Date(y, m, d, 0, 0, 0, 0, r.Start.Location()); !day.After(r.End); day = day.AddDate(0, 0, 1) {
		key := day.Format(time.DateOnly)
		p := DailyPoint{Date: key, Income: decimal.Zero, Expense: decimal.Zero}
		if t, ok := days[key]; ok {
			p.Income, p.Expense = t.income, t.expense
		}
		out = append(out, p)
	}
	return out
}

// BreakdownOf sums txns per category and folds the categories worth less
// than FoldShare of the total into one other entry. Transactions whose
// category is missing from cats are grouped as uncategorized. Equal values
// keep the order in which their category first appears in txns.
func BreakdownOf(txns []ledger.Transaction, cats []ledger.Category) Breakdown {
	byID := make(map[string]*ledger.Category, len(cats))
	for i := range cats {
		byID[cats[i].ID] = &cats[i]
	}

	var entries []CategoryValue
	index := make(map[string]int)
	total := decimal.Zero
	for _, t := range txns {
		id, name, color := UncategorizedID, "Uncategorized", ""
		if c, ok := byID[t.CategoryID]; ok {
			id, name, color = c.ID, c.Name, c.Color
		}
		i, ok := index[id]
		if !ok {
			i = len(entries)
			index[id] = i
			entries = append(entries, CategoryValue{ID: id, Name: name, Color: color, Value: decimal.Zero})
		}
		entries[i].Value = money.Add(entries[i].Value, t.Amount)
		total = money.Add(total, t.Amount)
	}
	for i := range entries {
		if entries[i].Color == "" {
			entries[i].Color = paletteColor(i)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value.GreaterThan(entries[j].Value)
	})

	b := Breakdown{Total: total, Threshold: money.Multiply(total, FoldShare)}
	other := decimal.Zero
	for _, e := range entries {
		if e.Value.LessThan(b.Threshold) {
			b.Folded = append(b.Folded, e)
			other = money.Add(other, e.Value)
			continue
		}
		b.Categories = append(b.Categories, e)
	}
	if len(b.Folded) > 0 {
		b.Categories = append(b.Categories, CategoryValue{ID: OtherID, Name: OtherName, Color: otherColor, Value: other})
	}
	if b.Categories == nil {
		b.Categories = []CategoryValue{}
	}
	return b
}

const otherColor = "hsl(0, 0%, 60%)"

// paletteColor spreads hues by the golden angle so neighbours differ.
func paletteColor(i int) string {
	hue := float64(i) * 137.5
	for hue >= 360 {
		hue -= 360
	}
	return fmt.Sprintf("hsl(%g, 70%%, 50%%)", hue)
}
