package main

import (
	"github.com/spf13/cobra"
)

var scanStoreID string

// scanCmd runs the product resolver once and prints the resolution
var scanCmd = &cobra.Command{
	Use:   "scan <barcode>",
	Short: "Resolve a barcode against a store catalog",
	Long: `Resolve a barcode the same way the storefront does: the store catalog
first, then the analysis cache, then the Gemini product analysis when
GEMINI_API_KEY is set. The resolution is printed as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanStoreID, "store", "s", "", "Store ID (default: the catalog's default store)")
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	storeID := scanStoreID
	if storeID == "" {
		storeID = a.Stores.Default().ID
	}
	products, err := a.Products.StoreProducts(storeID)
	if err != nil {
		return err
	}

	res, err := a.Resolver.Resolve(cmd.Context(), args[0], products, a.Products.CategoryNames())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}
