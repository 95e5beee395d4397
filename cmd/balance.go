package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/simonvc/moneymanager/internal/client"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Check stored account balances against their transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		check, err := c.CheckBalances(context.Background())
		if err != nil {
			return err
		}
		printBalanceCheck(check)
		return nil
	},
}

func printBalanceCheck(bc *ledger.BalanceCheck) {
	w := 76
	fmt.Println()
	fmt.Println(center("BALANCE CHECK", w))
	fmt.Println(center(strings.Repeat("=", 20), w))
	fmt.Println()

	fmt.Printf("  %-24s %-5s %14s %14s %14s\n", "ACCOUNT", "CCY", "STORED", "COMPUTED", "DRIFT")
	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	for _, l := range bc.Lines {
		drift := ""
		if d := l.Drift(); !d.IsZero() {
			drift = formatSigned(d, l.Currency)
		}
		fmt.Printf("  %-24s %-5s %14s %14s %14s\n",
			truncate(l.AccountName, 24), l.Currency,
			formatSigned(l.Stored, l.Currency),
			formatSigned(l.Computed, l.Currency),
			drift)
	}

	if bc.Consistent {
		fmt.Println("\n  [CONSISTENT]")
	} else {
		fmt.Println("\n  [DRIFT DETECTED] run `moneymanager account recompute <id>` to repair")
	}
}

func center(s string, w int) string {
	n := len([]rune(s))
	if n >= w {
		return s
	}
	return strings.Repeat(" ", (w-n)/2) + s
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}
