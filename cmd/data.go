package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/simonvc/moneymanager/internal/backup"
	"github.com/simonvc/moneymanager/internal/client"
	"github.com/simonvc/moneymanager/internal/importer"
	"github.com/spf13/cobra"
)

// import
var (
	importAccount string
	importDedup   bool
	importCheck   bool
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a legacy TXT export into an account",
	Long: `Import a legacy TXT export. Each line holds date, type, category, amount
and note separated by " ` + "\\x01" + ` ". Missing categories are created, and with
--dedup records already present in the ledger are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)
		ctx := context.Background()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		if importCheck {
			n, err := c.CheckLegacy(ctx, f, importAccount)
			if err != nil {
				return err
			}
			fmt.Printf("%d record(s) already in the ledger.\n", n)
			return nil
		}

		res, err := c.ImportLegacy(ctx, f, importAccount, importDedup)
		if err != nil {
			return err
		}
		fmt.Printf("Imported:           %d\n", res.Imported)
		fmt.Printf("Duplicates skipped: %d\n", res.Duplicates)
		fmt.Printf("Lines rejected:     %d\n", res.Rejected)
		fmt.Printf("Categories created: %d\n", res.CategoriesCreated)
		fmt.Printf("Account balance:    %s\n", res.Balance.StringFixed(2))
		return nil
	},
}

// export
var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all income and expense records as a legacy TXT file",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)
		path := exportOut
		if path == "" {
			path = importer.FileName(time.Now().In(cfg.Location()))
		}
		if err := writeFile(path, func(w *bufio.Writer) error {
			return c.ExportLegacy(context.Background(), w)
		}); err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", path)
		return nil
	},
}

// backup
var backupOut string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a JSON backup of the whole ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)
		path := backupOut
		if path == "" {
			path = backup.FileName(time.Now().In(cfg.Location()))
		}
		if err := writeFile(path, func(w *bufio.Writer) error {
			return c.Backup(context.Background(), w)
		}); err != nil {
			return err
		}
		fmt.Printf("Backup written to %s\n", path)
		return nil
	},
}

// restore
var restoreYes bool

var restoreCmd = &cobra.Command{
	Use:   "restore [file]",
	Short: "Replace the whole ledger with a JSON backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		if !restoreYes && !confirm("Restoring replaces all accounts, categories and transactions. Continue?") {
			return nil
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := c.Restore(context.Background(), f)
		if err != nil {
			return err
		}
		fmt.Printf("Restored %d account(s), %d categories, %d transaction(s)\n",
			res.Accounts, res.Categories, res.Transactions)
		return nil
	},
}

// clear
var (
	clearSeed     bool
	clearCurrency string
	clearYes      bool
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all ledger data",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		if !clearYes && !confirm("This deletes all accounts, categories and transactions. Continue?") {
			return nil
		}
		currency := clearCurrency
		if currency == "" {
			currency = cfg.Currency
		}
		if err := c.Clear(context.Background(), clearSeed, currency); err != nil {
			return err
		}
		if clearSeed {
			fmt.Println("Ledger cleared and reseeded.")
		} else {
			fmt.Println("Ledger cleared.")
		}
		return nil
	},
}

func writeFile(path string, fill func(w *bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func init() {
	importCmd.Flags().StringVar(&importAccount, "account", "", "Account ID to import into")
	importCmd.Flags().BoolVar(&importDedup, "dedup", true, "Skip records already in the ledger")
	importCmd.Flags().BoolVar(&importCheck, "check", false, "Only count records already in the ledger")
	importCmd.MarkFlagRequired("account")

	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Output file (defaults to a dated name)")
	backupCmd.Flags().StringVarP(&backupOut, "output", "o", "", "Output file (defaults to a dated name)")
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "Do not ask for confirmation")

	clearCmd.Flags().BoolVar(&clearSeed, "seed", true, "Recreate the default account and builtin categories")
	clearCmd.Flags().StringVar(&clearCurrency, "currency", "", "Currency of the reseeded default account")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(clearCmd)
}
