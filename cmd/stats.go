package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/moneymanager/internal/client"
	"github.com/simonvc/moneymanager/internal/stats"
	"github.com/spf13/cobra"
)

var (
	statsDimension string
	statsDate      string
	statsShift     int
	statsDaily     bool
	statsWatch     bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show income and expense for a period",
	Example: `  moneymanager stats --dimension month
  moneymanager stats --dimension week --shift -1
  moneymanager stats --dimension year --date 2023-06-01 --daily`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		dim, err := stats.ParseDimension(statsDimension)
		if err != nil {
			return err
		}
		date, err := parseDate(statsDate)
		if err != nil {
			return err
		}

		if statsWatch {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			if statsShift != 0 {
				if date.IsZero() {
					date = time.Now().In(cfg.Location())
				}
				if date, err = stats.Shift(dim, date, statsShift); err != nil {
					return err
				}
			}
			return c.WatchStats(ctx, dim, date, func(s *stats.Summary) {
				fmt.Print("\033[H\033[2J")
				printSummary(s)
			})
		}

		sum, err := c.Stats(context.Background(), dim, date, statsShift)
		if err != nil {
			return err
		}
		printSummary(sum)
		return nil
	},
}

func printSummary(s *stats.Summary) {
	w := 60
	loc := cfg.Location()
	title := strings.ToUpper(string(s.Dimension))
	if s.Dimension != stats.All {
		title += "  " + s.Range.Start.In(loc).Format("2006-01-02") + " .. " + s.Range.End.In(loc).Format("2006-01-02")
	}
	fmt.Println()
	fmt.Println(center(title, w))
	fmt.Println(center(strings.Repeat("=", 20), w))
	fmt.Println()

	fmt.Printf("  %-*s%15s\n", w-17, "Income", formatSigned(s.TotalIncome, cfg.Currency))
	fmt.Printf("  %-*s%15s\n", w-17, "Expense", formatSigned(s.TotalExpense, cfg.Currency))
	fmt.Printf("%*s%s\n", w-13, "", "─────────────")
	fmt.Printf("  %-*s%15s\n", w-17, "Balance", formatSigned(s.Balance, cfg.Currency))
	fmt.Printf("  %-*s%15d\n", w-17, "Records", s.Count)
	fmt.Println()

	printBreakdown("EXPENSE BY CATEGORY", s.Expense, w)
	printBreakdown("INCOME BY CATEGORY", s.Income, w)

	if statsDaily {
		fmt.Printf("  %-12s %15s %15s\n", "DATE", "INCOME", "EXPENSE")
		fmt.Printf("  %s\n", strings.Repeat("─", w-4))
		for _, p := range s.Daily {
			if p.Income.IsZero() && p.Expense.IsZero() {
				continue
			}
			fmt.Printf("  %-12s %15s %15s\n", p.Date, p.Income.StringFixed(2), p.Expense.StringFixed(2))
		}
	}
}

func printBreakdown(title string, b stats.Breakdown, w int) {
	if len(b.Categories) == 0 {
		return
	}
	fmt.Printf("  %s\n", title)
	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	for _, cv := range b.Categories {
		share := decimal.Zero
		if !b.Total.IsZero() {
			share = cv.Value.Div(b.Total).Mul(decimal.NewFromInt(100))
		}
		fmt.Printf("  %-*s%6s%% %15s\n", w-27, truncate(cv.Name, w-28), share.StringFixed(1), cv.Value.StringFixed(2))
	}
	if len(b.Folded) > 0 {
		names := make([]string, len(b.Folded))
		for i, f := range b.Folded {
			names[i] = f.Name
		}
		fmt.Printf("    (%s: %s)\n", stats.OtherName, strings.Join(names, ", "))
	}
	fmt.Println()
}

func formatSigned(amount decimal.Decimal, currency string) string {
	if amount.IsNegative() {
		return "(" + formatAmount(amount.Neg(), currency) + ")"
	}
	return formatAmount(amount, currency)
}

func init() {
	statsCmd.Flags().StringVar(&statsDimension, "dimension", "month", "Period: day, week, month, year or all")
	statsCmd.Flags().StringVar(&statsDate, "date", "", "Any date inside the period (defaults to today)")
	statsCmd.Flags().IntVar(&statsShift, "shift", 0, "Move the period this many steps, negative for earlier")
	statsCmd.Flags().BoolVar(&statsDaily, "daily", false, "Also print the per-day series")
	statsCmd.Flags().BoolVar(&statsWatch, "watch", false, "Keep running and redraw on every change")
	rootCmd.AddCommand(statsCmd)
}
