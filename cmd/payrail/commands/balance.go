package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// balance: print one asset balance, from cache or pulled from the relay.
func balanceCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "balance <asset>",
		Short: "Print an asset balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset := args[0]
			amount := application.GetUnifiedBalance(cmd.Context(), asset, force)
			display, err := application.FormatBalance(amount)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s (%s)\n", asset, display, amount)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "refresh", false, "bypass the cache")
	return cmd
}
