package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// authenticate: run the challenge-response login against the relay.
func authenticateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "authenticate",
		Short: "Log in to the relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("password required (-p)")
			}
			result := application.Authenticate(cmd.Context(), password)
			if !result.Success {
				fmt.Printf("Authentication failed: %s\n", result.Error)
				return nil
			}
			fmt.Printf("Authenticated. Session %s\n", result.SessionID)
			for _, b := range result.Balances {
				if display, err := application.FormatBalance(b.Amount); err == nil {
					fmt.Printf("  %s: %s\n", b.Asset, display)
				}
			}
			return nil
		},
	}
}
