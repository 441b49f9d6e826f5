package main

import (
	"fmt"
	"strconv"

	"github.com/abgdnv/inventory/internal/inventory/render"
	"github.com/abgdnv/inventory/internal/inventory/service"
	"github.com/spf13/cobra"
)

var byIndex bool

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List and manage categories",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories in insertion order",
	Args:  cobra.NoArgs,
	RunE:  runCategoriesList,
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoriesAdd,
}

var categoriesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a category and every product in it",
	Long: `Delete a category. All products in the category are deleted too.

With --index the argument is the position shown by categories list.`,
	Args: cobra.ExactArgs(1),
	RunE: runCategoriesDelete,
}

func init() {
	categoriesDeleteCmd.Flags().BoolVar(&byIndex, "index", false, "Treat the argument as a list position")
	categoriesCmd.AddCommand(categoriesListCmd, categoriesAddCmd, categoriesDeleteCmd)
}

func runCategoriesList(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	categories, err := api.Categories(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), render.Categories(styles, categories))
	return nil
}

func runCategoriesAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	name, err := api.AddCategory(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added category %s\n", name)
	return nil
}

func runCategoriesDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	var (
		result *service.CategoryDeletedDto
		err    error
	)
	if byIndex {
		pos, convErr := strconv.Atoi(args[0])
		if convErr != nil || pos < 1 {
			return fmt.Errorf("no category at position %q", args[0])
		}
		// positions are 1-based as printed by categories list
		if result, err = api.DeleteCategoryAt(ctx, pos-1); err != nil {
			return err
		}
		if !result.Deleted {
			return fmt.Errorf("no category at position %q", args[0])
		}
	} else if result, err = api.DeleteCategory(ctx, args[0]); err != nil {
		return err
	}
	if !result.Deleted {
		fmt.Fprintf(cmd.OutOrStdout(), "No category %s, nothing deleted\n", result.Name)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s and %d product(s)\n", result.Name, result.RemovedProducts)
	return nil
}
