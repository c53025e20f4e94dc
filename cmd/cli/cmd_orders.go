package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var ordersJSON bool

// ordersCmd prints a customer's order history and wallet balance
var ordersCmd = &cobra.Command{
	Use:   "orders <email>",
	Short: "Show a customer's order history",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrders,
}

func init() {
	ordersCmd.Flags().BoolVar(&ordersJSON, "json", false, "Print orders as JSON")
}

func runOrders(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.Users.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	orders, err := a.Orders.ListOrders(cmd.Context(), user.Email)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ordersJSON {
		return printJSON(out, orders)
	}

	fmt.Fprintf(out, "%s <%s> wallet: %.2f\n\n", user.Name, user.Email, user.WalletBalance)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tDATE\tSTORE\tTOTAL\tEARNED\tREDEEMED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%.2f\n",
			o.ID, o.Date.Format("2006-01-02 15:04"), o.StoreID, o.TotalAmount, o.RewardPointsEarned, o.RewardPointsRedeemed)
	}
	return tw.Flush()
}
