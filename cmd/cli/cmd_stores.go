package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"purepick/internal/services"
)

var (
	nearLat float64
	nearLng float64
)

// storesCmd lists stores, or with --lat/--lng the nearest one
var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "List stores or find the nearest one",
	RunE:  runStores,
}

func init() {
	storesCmd.Flags().Float64Var(&nearLat, "lat", 0, "Latitude for a nearest-store lookup")
	storesCmd.Flags().Float64Var(&nearLng, "lng", 0, "Longitude for a nearest-store lookup")
	storesCmd.MarkFlagsRequiredTogether("lat", "lng")
}

func runStores(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if cmd.Flags().Changed("lat") {
		store, distance := a.Stores.Nearest(nearLat, nearLng)
		deliverable := distance <= a.Config.MaxDeliveryMiles
		fmt.Fprintf(out, "%s (%s) %.2f miles, delivers: %t\n", store.Name, store.ID, services.RoundCents(distance), deliverable)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLAT\tLNG\tPRODUCTS")
	for _, store := range a.Stores.List() {
		products, err := a.Products.StoreProducts(store.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%d\n", store.ID, store.Name, store.Latitude, store.Longitude, len(products))
	}
	return tw.Flush()
}
