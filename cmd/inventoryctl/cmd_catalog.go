package main

import (
	"fmt"
	"strconv"

	"github.com/abgdnv/inventory/internal/inventory/render"
	"github.com/abgdnv/inventory/internal/inventory/service"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show totals and the stock by category chart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		d, err := api.Dashboard(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), render.Dashboard(styles, *d))
		return nil
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse and import from the remote product catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the remote catalog",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <catalog-id> <quantity>",
	Short: "Import one catalog item with the given stock quantity",
	Args:  cobra.ExactArgs(2),
	RunE:  runCatalogImport,
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty inventory from the remote catalog",
	Args:  cobra.NoArgs,
	RunE:  runCatalogSeed,
}

func init() {
	catalogCmd.AddCommand(catalogListCmd, catalogImportCmd, catalogSeedCmd)
}

func runCatalogList(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	items, err := api.Catalog(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), render.Catalog(styles, items))
	return nil
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	catalogID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid catalog id %q", args[0])
	}
	product, err := api.ImportFromCatalog(ctx, service.CatalogImportDto{
		CatalogID: catalogID,
		Quantity:  service.Quantity(args[1]),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s into %s with %d in stock\n", product.Name, product.Category, product.Stock)
	return nil
}

func runCatalogSeed(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	result, err := api.SeedFromCatalog(ctx)
	if err != nil {
		return err
	}
	if !result.Applied {
		fmt.Fprintln(cmd.OutOrStdout(), "Inventory is not empty, nothing seeded.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d product(s)\n", result.Products)
	return nil
}
