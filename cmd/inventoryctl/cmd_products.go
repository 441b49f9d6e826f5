package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/abgdnv/inventory/internal/inventory/render"
	"github.com/abgdnv/inventory/internal/inventory/service"
	"github.com/abgdnv/inventory/internal/inventory/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	listQuery service.ListQuery
	form      productFlags
)

type productFlags struct {
	name     string
	price    string
	stock    int64
	category string
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List and manage products",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products, optionally filtered and sorted",
	Long: `List products.

Only one filter can be active: either --q (name substring) or --category.
Use --category all to show every category.`,
	Args: cobra.NoArgs,
	RunE: runProductsList,
}

var productsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a product",
	Args:  cobra.NoArgs,
	RunE:  runProductsAdd,
}

var productsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace the fields of a product, keeping its id",
	Long: `Update a product. Flags that are not given keep their current value.
The id may be abbreviated to any unique prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: runProductsUpdate,
}

var productsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsDelete,
}

func init() {
	productsListCmd.Flags().StringVar(&listQuery.Q, "q", "", "Filter by name substring (case-insensitive)")
	productsListCmd.Flags().StringVar(&listQuery.Category, "category", "", "Filter by exact category")
	productsListCmd.Flags().StringVar(&listQuery.Sort, "sort", "", "Sort by name, price or stock")
	productsListCmd.Flags().StringVar(&listQuery.Order, "order", "asc", "Sort order: asc or desc")

	for _, c := range []*cobra.Command{productsAddCmd, productsUpdateCmd} {
		c.Flags().StringVar(&form.name, "name", "", "Product name")
		c.Flags().StringVar(&form.price, "price", "0", "Unit price")
		c.Flags().Int64Var(&form.stock, "stock", 0, "Units in stock")
		c.Flags().StringVar(&form.category, "category", "", "Category name")
	}
	_ = productsAddCmd.MarkFlagRequired("name")

	productsCmd.AddCommand(productsListCmd, productsAddCmd, productsUpdateCmd, productsDeleteCmd)
}

func runProductsList(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	products, err := api.ListProducts(ctx, listQuery)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), render.Products(styles, fromDtos(products)))
	return nil
}

func runProductsAdd(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	price, err := decimal.NewFromString(form.price)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", form.price, err)
	}
	result, err := api.SubmitForm(ctx, service.ProductFormDto{
		Name: form.name, Price: price, Stock: form.stock, Category: form.category,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", result.Product.Name, result.Product.ID)
	return nil
}

func runProductsUpdate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	id, err := resolveID(ctx, args[0])
	if err != nil {
		return err
	}
	session, err := api.BeginEdit(ctx, id)
	if err != nil {
		return err
	}
	dto := service.ProductFormDto{
		Name:     session.Product.Name,
		Price:    session.Product.Price,
		Stock:    session.Product.Stock,
		Category: session.Product.Category,
	}
	flags := cmd.Flags()
	if flags.Changed("name") {
		dto.Name = form.name
	}
	if flags.Changed("price") {
		if dto.Price, err = decimal.NewFromString(form.price); err != nil {
			return fmt.Errorf("invalid price %q: %w", form.price, err)
		}
	}
	if flags.Changed("stock") {
		dto.Stock = form.stock
	}
	if flags.Changed("category") {
		dto.Category = form.category
	}

	result, err := api.SubmitForm(ctx, dto)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", result.Product.Name, result.Product.ID)
	return nil
}

func runProductsDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	id, err := resolveID(ctx, args[0])
	if err != nil {
		return err
	}
	if err := api.DeleteByID(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
	return nil
}

// resolveID accepts a full id or a unique prefix of one, as printed by products list.
func resolveID(ctx context.Context, s string) (string, error) {
	if id, err := uuid.Parse(s); err == nil {
		return id.String(), nil
	}
	products, err := api.ListProducts(ctx, service.ListQuery{})
	if err != nil {
		return "", err
	}
	var match []string
	for _, p := range products {
		if strings.HasPrefix(p.ID, strings.ToLower(s)) {
			match = append(match, p.ID)
		}
	}
	switch len(match) {
	case 1:
		return match[0], nil
	case 0:
		return "", fmt.Errorf("no product with id %q", s)
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d products)", s, len(match))
	}
}

func fromDtos(dtos []service.ProductDto) []store.Product {
	products := make([]store.Product, 0, len(dtos))
	for _, d := range dtos {
		products = append(products, store.Product{
			ID:       uuid.MustParse(d.ID),
			Name:     d.Name,
			Price:    d.Price,
			Stock:    d.Stock,
			Category: d.Category,
		})
	}
	return products
}
