package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/simonvc/moneymanager/internal/client"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/money"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts",
}

// account create
var (
	accountName     string
	accountType     string
	accountCurrency string
	accountIcon     string
	accountColor    string
)

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		typ, err := ledger.ParseAccountType(accountType)
		if err != nil {
			return err
		}
		currency := accountCurrency
		if currency == "" {
			currency = cfg.Currency
		}
		acct, err := c.CreateAccount(context.Background(), &ledger.Account{
			Name:     accountName,
			Type:     typ,
			Currency: strings.ToUpper(currency),
			Icon:     accountIcon,
			Color:    accountColor,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Account created: %s (%s)\n", acct.Name, acct.ID)
		return nil
	},
}

// account list
var accountListType string

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		var typ ledger.AccountType
		if accountListType != "" {
			t, err := ledger.ParseAccountType(accountListType)
			if err != nil {
				return err
			}
			typ = t
		}

		accounts, err := c.ListAccounts(context.Background(), typ)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Println("No accounts found.")
			return nil
		}

		fmt.Printf("%-38s %-20s %-14s %-5s %14s\n", "ID", "NAME", "TYPE", "CCY", "BALANCE")
		fmt.Printf("%-38s %-20s %-14s %-5s %14s\n", "----", "----", "----", "---", "-------")
		for _, a := range accounts {
			fmt.Printf("%-38s %-20s %-14s %-5s %14s\n",
				a.ID, truncate(a.Name, 20), a.Type, a.Currency, formatAmount(a.Balance, a.Currency))
		}
		return nil
	},
}

// account get
var accountGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get account details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		acct, err := c.GetAccount(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID:       %s\n", acct.ID)
		fmt.Printf("Name:     %s\n", acct.Name)
		fmt.Printf("Type:     %s (%s)\n", acct.Type, ledger.AccountTypeLabel(acct.Type))
		fmt.Printf("Currency: %s\n", acct.Currency)
		fmt.Printf("Balance:  %s\n", formatAmount(acct.Balance, acct.Currency))
		if acct.Icon != "" {
			fmt.Printf("Icon:     %s\n", acct.Icon)
		}
		if acct.Color != "" {
			fmt.Printf("Color:    %s\n", acct.Color)
		}
		fmt.Printf("Created:  %s\n", acct.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

// account update
var accountUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Rename, retype or recolor an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		var patch ledger.AccountPatch
		flags := cmd.Flags()
		if flags.Changed("name") {
			v, _ := flags.GetString("name")
			patch.Name = &v
		}
		if flags.Changed("type") {
			v, _ := flags.GetString("type")
			typ, err := ledger.ParseAccountType(v)
			if err != nil {
				return err
			}
			patch.Type = &typ
		}
		if flags.Changed("currency") {
			v, _ := flags.GetString("currency")
			patch.Currency = &v
		}
		if flags.Changed("icon") {
			v, _ := flags.GetString("icon")
			patch.Icon = &v
		}
		if flags.Changed("color") {
			v, _ := flags.GetString("color")
			patch.Color = &v
		}

		acct, err := c.UpdateAccount(context.Background(), args[0], patch)
		if err != nil {
			return err
		}
		fmt.Printf("Account updated: %s (%s)\n", acct.Name, acct.ID)
		return nil
	},
}

// account delete
var accountCascade bool

var accountDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an account",
	Long:  "Delete an account. An account with transactions is only deleted with --cascade, which also deletes those transactions.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)
		if err := c.DeleteAccount(context.Background(), args[0], accountCascade); err != nil {
			return err
		}
		fmt.Printf("Account deleted: %s\n", args[0])
		return nil
	},
}

// account recompute
var accountRecomputeCmd = &cobra.Command{
	Use:   "recompute [id]",
	Short: "Recompute an account balance from its transactions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		bal, err := c.RecomputeBalance(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Balance for %s: %s\n", bal.AccountID, bal.Formatted)
		return nil
	},
}

func formatAmount(d decimal.Decimal, currency string) string {
	s := money.FormatCents(d)
	sym := ledger.CurrencySymbol(currency)
	if strings.HasPrefix(s, "-") {
		return "-" + sym + s[1:]
	}
	return sym + s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-2]) + ".."
}

func init() {
	accountCreateCmd.Flags().StringVar(&accountName, "name", "", "Account name")
	accountCreateCmd.Flags().StringVar(&accountType, "type", "cash", "Account type (cash, bank, mobile-wallet, credit-card, other)")
	accountCreateCmd.Flags().StringVar(&accountCurrency, "currency", "", "Currency code (defaults to MONEYMANAGER_CURRENCY)")
	accountCreateCmd.Flags().StringVar(&accountIcon, "icon", "", "Icon")
	accountCreateCmd.Flags().StringVar(&accountColor, "color", "", "Color")
	accountCreateCmd.MarkFlagRequired("name")

	accountUpdateCmd.Flags().String("name", "", "New name")
	accountUpdateCmd.Flags().String("type", "", "New account type")
	accountUpdateCmd.Flags().String("currency", "", "New currency code")
	accountUpdateCmd.Flags().String("icon", "", "New icon")
	accountUpdateCmd.Flags().String("color", "", "New color")

	accountListCmd.Flags().StringVar(&accountListType, "type", "", "Filter by account type")
	accountDeleteCmd.Flags().BoolVar(&accountCascade, "cascade", false, "Also delete the account's transactions")

	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountGetCmd)
	accountCmd.AddCommand(accountUpdateCmd)
	accountCmd.AddCommand(accountDeleteCmd)
	accountCmd.AddCommand(accountRecomputeCmd)

	rootCmd.AddCommand(accountCmd)
}
