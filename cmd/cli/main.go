// Command purepick-cli manages accounts and inspects the catalog and product
// resolver from the terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"purepick/internal/app"
	"purepick/internal/config"
	"purepick/internal/logging"
)

var (
	configPath string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "purepick-cli",
	Short: "PurePick storefront administration",
	Long: `Administer a PurePick storefront.

Available commands:
  add-user - Create a customer account
  scan     - Resolve a barcode against a store catalog
  stores   - List stores or find the nearest one
  orders   - Show a customer's order history`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("PUREPICK_CONFIG"), "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(addUserCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(storesCmd)
	rootCmd.AddCommand(ordersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openApp loads configuration and wires the application for one command.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if verbose {
		if logger, err = logging.New("development", "debug"); err != nil {
			return nil, err
		}
	}
	return app.New(ctx, cfg, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
