package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// spend: record a spend against the session key's allowance, rotating the
// key first when the ledger already covers it.
func spendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spend <asset> <amount>",
		Short: "Record a spend against the session key allowance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("password required (-p)")
			}
			asset, amount := args[0], args[1]

			key, rotated, err := application.RotateIfNeeded(asset, password)
			if err != nil {
				return err
			}
			if rotated {
				fmt.Printf("Session key rotated: %s\n", key.PublicIdentity())
			}
			if err := wiring.Keys.RecordSpend(asset, amount); err != nil {
				return err
			}
			spent, err := wiring.Keys.Spent(asset)
			if err != nil {
				return err
			}
			fmt.Printf("Recorded. Total spent on %s: %s\n", asset, spent)
			return nil
		},
	}
}
