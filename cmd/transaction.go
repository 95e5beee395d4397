package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/simonvc/moneymanager/internal/client"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/money"
	"github.com/spf13/cobra"
)

var transactionCmd = &cobra.Command{
	Use:     "transaction",
	Aliases: []string{"txn"},
	Short:   "Manage transactions",
}

// transaction add
var (
	txnType     string
	txnAmount   string
	txnAccount  string
	txnTo       string
	txnCategory string
	txnDate     string
	txnNote     string
	txnTags     []string
)

var transactionAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an income, expense or transfer",
	Example: `  moneymanager txn add --type expense --amount 12.50 --account <id> --category <id> --note lunch
  moneymanager txn add --type transfer --amount 500 --account <from> --to <to>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		typ, err := ledger.ParseTransactionType(txnType)
		if err != nil {
			return err
		}
		amount, err := money.Parse(txnAmount)
		if err != nil {
			return err
		}
		date, err := parseDate(txnDate)
		if err != nil {
			return err
		}

		created, err := c.AddTransaction(context.Background(), &ledger.Transaction{
			Type:        typ,
			Amount:      amount,
			AccountID:   txnAccount,
			ToAccountID: txnTo,
			CategoryID:  txnCategory,
			Date:        date,
			Note:        txnNote,
			Tags:        txnTags,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Transaction recorded: %s\n", created.ID)
		printTransaction(created)
		return nil
	},
}

// transaction list
var (
	txnListAccount  string
	txnListType     string
	txnListCategory string
	txnListFrom     string
	txnListTo       string
	txnListLimit    int
)

var transactionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		filter := ledger.TransactionFilter{
			AccountID:  txnListAccount,
			CategoryID: txnListCategory,
			Limit:      txnListLimit,
		}
		if txnListType != "" {
			typ, err := ledger.ParseTransactionType(txnListType)
			if err != nil {
				return err
			}
			filter.Type = typ
		}
		var err error
		if filter.From, err = parseDate(txnListFrom); err != nil {
			return err
		}
		if filter.To, err = parseDate(txnListTo); err != nil {
			return err
		}
		if txnListTo != "" && !strings.Contains(txnListTo, ":") {
			filter.To = filter.To.AddDate(0, 0, 1).Add(-time.Millisecond)
		}

		txns, err := c.ListTransactions(context.Background(), filter)
		if err != nil {
			return err
		}
		if len(txns) == 0 {
			fmt.Println("No transactions found.")
			return nil
		}

		fmt.Printf("%-38s %-16s %-8s %12s %s\n", "ID", "DATE", "TYPE", "AMOUNT", "NOTE")
		fmt.Printf("%-38s %-16s %-8s %12s %s\n", "----", "----", "----", "------", "----")
		for _, t := range txns {
			fmt.Printf("%-38s %-16s %-8s %12s %s\n",
				t.ID,
				t.Date.In(cfg.Location()).Format("2006-01-02 15:04"),
				t.Type,
				signedAmount(&t),
				truncate(t.Note, 40),
			)
		}
		return nil
	},
}

// transaction get
var transactionGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get transaction details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		txn, err := c.GetTransaction(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:       %s\n", txn.ID)
		printTransaction(txn)
		fmt.Printf("Updated:  %s\n", txn.UpdatedAt.In(cfg.Location()).Format("2006-01-02 15:04:05"))
		return nil
	},
}

// transaction update
var transactionUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Edit a transaction; affected balances are adjusted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		var patch ledger.TransactionPatch
		flags := cmd.Flags()
		if flags.Changed("type") {
			v, _ := flags.GetString("type")
			typ, err := ledger.ParseTransactionType(v)
			if err != nil {
				return err
			}
			patch.Type = &typ
		}
		if flags.Changed("amount") {
			v, _ := flags.GetString("amount")
			amount, err := money.Parse(v)
			if err != nil {
				return err
			}
			patch.Amount = &amount
		}
		if flags.Changed("date") {
			v, _ := flags.GetString("date")
			date, err := parseDate(v)
			if err != nil {
				return err
			}
			patch.Date = &date
		}
		for name, field := range map[string]**string{
			"account":  &patch.AccountID,
			"to":       &patch.ToAccountID,
			"category": &patch.CategoryID,
			"note":     &patch.Note,
		} {
			if flags.Changed(name) {
				v, _ := flags.GetString(name)
				*field = &v
			}
		}
		if flags.Changed("tag") {
			tags, _ := flags.GetStringSlice("tag")
			patch.Tags = &tags
		}

		txn, err := c.UpdateTransaction(context.Background(), args[0], patch)
		if err != nil {
			return err
		}
		fmt.Printf("Transaction updated: %s\n", txn.ID)
		printTransaction(txn)
		return nil
	},
}

var transactionDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a transaction and reverse its balance effect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)
		if err := c.DeleteTransaction(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Transaction deleted: %s\n", args[0])
		return nil
	},
}

func printTransaction(t *ledger.Transaction) {
	fmt.Printf("Type:     %s\n", t.Type)
	fmt.Printf("Amount:   %s\n", money.FormatCents(t.Amount))
	fmt.Printf("Date:     %s\n", t.Date.In(cfg.Location()).Format("2006-01-02 15:04"))
	if t.Type == ledger.Transfer {
		fmt.Printf("Accounts: %s -> %s\n", t.AccountID, t.ToAccountID)
	} else {
		fmt.Printf("Account:  %s\n", t.AccountID)
	}
	if t.CategoryID != "" {
		fmt.Printf("Category: %s\n", t.CategoryID)
	}
	if t.Note != "" {
		fmt.Printf("Note:     %s\n", t.Note)
	}
	if len(t.Tags) > 0 {
		fmt.Printf("Tags:     %s\n", strings.Join(t.Tags, ", "))
	}
}

func signedAmount(t *ledger.Transaction) string {
	s := money.FormatCents(t.Amount)
	switch t.Type {
	case ledger.Income:
		return "+" + s
	case ledger.Expense:
		return "-" + s
	default:
		return s
	}
}

// parseDate reads a date in the configured zone. Empty input is the zero
// time, which the server treats as now or unbounded.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04", time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, cfg.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD[ HH:MM] or RFC3339", s)
}

func init() {
	transactionAddCmd.Flags().StringVar(&txnType, "type", "expense", "Transaction type (income, expense, transfer)")
	transactionAddCmd.Flags().StringVar(&txnAmount, "amount", "", "Positive amount")
	transactionAddCmd.Flags().StringVar(&txnAccount, "account", "", "Account ID (source account for transfers)")
	transactionAddCmd.Flags().StringVar(&txnTo, "to", "", "Destination account ID for transfers")
	transactionAddCmd.Flags().StringVar(&txnCategory, "category", "", "Category ID")
	transactionAddCmd.Flags().StringVar(&txnDate, "date", "", "Date (defaults to now)")
	transactionAddCmd.Flags().StringVar(&txnNote, "note", "", "Note")
	transactionAddCmd.Flags().StringSliceVar(&txnTags, "tag", nil, "Tag (can be repeated)")
	transactionAddCmd.MarkFlagRequired("amount")
	transactionAddCmd.MarkFlagRequired("account")

	transactionListCmd.Flags().StringVar(&txnListAccount, "account", "", "Filter by account ID")
	transactionListCmd.Flags().StringVar(&txnListType, "type", "", "Filter by type")
	transactionListCmd.Flags().StringVar(&txnListCategory, "category", "", "Filter by category ID")
	transactionListCmd.Flags().StringVar(&txnListFrom, "from", "", "Earliest date, inclusive")
	transactionListCmd.Flags().StringVar(&txnListTo, "to", "", "Latest date, inclusive")
	transactionListCmd.Flags().IntVar(&txnListLimit, "limit", 50, "Maximum rows")

	transactionUpdateCmd.Flags().String("type", "", "New type")
	transactionUpdateCmd.Flags().String("amount", "", "New amount")
	transactionUpdateCmd.Flags().String("account", "", "New account ID")
	transactionUpdateCmd.Flags().String("to", "", "New destination account ID")
	transactionUpdateCmd.Flags().String("category", "", "New category ID")
	transactionUpdateCmd.Flags().String("date", "", "New date")
	transactionUpdateCmd.Flags().String("note", "", "New note")
	transactionUpdateCmd.Flags().StringSlice("tag", nil, "Replacement tags")

	transactionCmd.AddCommand(transactionAddCmd)
	transactionCmd.AddCommand(transactionListCmd)
	transactionCmd.AddCommand(transactionGetCmd)
	transactionCmd.AddCommand(transactionUpdateCmd)
	transactionCmd.AddCommand(transactionDeleteCmd)

	rootCmd.AddCommand(transactionCmd)
}
