package cmd

import (
	"context"
	"fmt"

	"github.com/simonvc/moneymanager/internal/client"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"cat"},
	Short:   "Manage income and expense categories",
}

var (
	categoryName   string
	categoryType   string
	categoryParent string
	categoryIcon   string
	categoryColor  string
)

var categoryCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a category",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		typ, err := ledger.ParseTransactionType(categoryType)
		if err != nil {
			return err
		}
		cat, err := c.CreateCategory(context.Background(), &ledger.Category{
			Name:     categoryName,
			Type:     typ,
			ParentID: categoryParent,
			Icon:     categoryIcon,
			Color:    categoryColor,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Category created: %s (%s)\n", cat.Name, cat.ID)
		return nil
	},
}

var categoryListType string

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		var typ ledger.TransactionType
		if categoryListType != "" {
			t, err := ledger.ParseTransactionType(categoryListType)
			if err != nil {
				return err
			}
			typ = t
		}
		cats, err := c.ListCategories(context.Background(), typ)
		if err != nil {
			return err
		}
		if len(cats) == 0 {
			fmt.Println("No categories found.")
			return nil
		}

		fmt.Printf("%-38s %-8s %-20s %s\n", "ID", "TYPE", "NAME", "BUILTIN")
		fmt.Printf("%-38s %-8s %-20s %s\n", "----", "----", "----", "-------")
		for _, cat := range cats {
			builtin := ""
			if cat.IsBuiltin {
				builtin = "yes"
			}
			fmt.Printf("%-38s %-8s %-20s %s\n", cat.ID, cat.Type, truncate(cat.Name, 20), builtin)
		}
		return nil
	},
}

var categoryUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Rename or recolor a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)

		var patch ledger.CategoryPatch
		flags := cmd.Flags()
		for name, field := range map[string]**string{
			"name":   &patch.Name,
			"parent": &patch.ParentID,
			"icon":   &patch.Icon,
			"color":  &patch.Color,
		} {
			if flags.Changed(name) {
				v, _ := flags.GetString(name)
				*field = &v
			}
		}

		cat, err := c.UpdateCategory(context.Background(), args[0], patch)
		if err != nil {
			return err
		}
		fmt.Printf("Category updated: %s (%s)\n", cat.Name, cat.ID)
		return nil
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a category",
	Long:  "Delete a user category. Builtin categories cannot be deleted. Transactions that used it keep the dangling id and show as uncategorized.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagServer)
		if err := c.DeleteCategory(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Category deleted: %s\n", args[0])
		return nil
	},
}

func init() {
	categoryCreateCmd.Flags().StringVar(&categoryName, "name", "", "Category name")
	categoryCreateCmd.Flags().StringVar(&categoryType, "type", "expense", "Category type (income, expense)")
	categoryCreateCmd.Flags().StringVar(&categoryParent, "parent", "", "Parent category ID")
	categoryCreateCmd.Flags().StringVar(&categoryIcon, "icon", "", "Icon")
	categoryCreateCmd.Flags().StringVar(&categoryColor, "color", "", "Color")
	categoryCreateCmd.MarkFlagRequired("name")

	categoryUpdateCmd.Flags().String("name", "", "New name")
	categoryUpdateCmd.Flags().String("parent", "", "New parent category ID")
	categoryUpdateCmd.Flags().String("icon", "", "New icon")
	categoryUpdateCmd.Flags().String("color", "", "New color")

	categoryListCmd.Flags().StringVar(&categoryListType, "type", "", "Filter by type (income, expense)")

	categoryCmd.AddCommand(categoryCreateCmd)
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryUpdateCmd)
	categoryCmd.AddCommand(categoryDeleteCmd)

	rootCmd.AddCommand(categoryCmd)
}
