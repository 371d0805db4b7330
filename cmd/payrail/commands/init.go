package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"payrail/internal/domain"
)

// init: generate a session key with the configured (or given) allowances and
// store it encrypted under the password.
func initCmd() *cobra.Command {
	var asset, amount string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate and store a session key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("password required (-p)")
			}
			var allowances []domain.Allowance
			if asset != "" {
				allowances = []domain.Allowance{{Asset: asset, Amount: amount}}
			}
			key, err := application.GenerateSessionKey(password, allowances)
			if err != nil {
				return err
			}
			fmt.Printf("Session key %s expires %s\n", key.PublicIdentity(), key.ExpiresAt.Format("2006-01-02 15:04:05"))
			for _, a := range key.Allowances {
				fmt.Printf("  allowance %s: %s\n", a.Asset, a.Amount)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&asset, "asset", "", "allowance asset (default from config)")
	cmd.Flags().StringVar(&amount, "amount", "", "allowance amount in smallest units")
	return cmd
}
