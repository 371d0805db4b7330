package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"payrail/internal/crypto"
	"payrail/internal/domain"
)

// status: show connection state, stored key expiry and cached balances.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connection and session key status",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Connection: %s\n", wiring.Conn.State())

			if password != "" {
				key, err := wiring.Keys.Load(password)
				switch {
				case err == nil:
					fmt.Printf("Session key: %s expires %s\n",
						crypto.Fingerprint(key.Pub.Slice()), key.ExpiresAt.Format("2006-01-02 15:04:05"))
				case errors.Is(err, domain.ErrNoKey):
					fmt.Println("Session key: none")
				default:
					return err
				}
			}

			for _, b := range wiring.Balances.Snapshot() {
				display, err := application.FormatBalance(b.Amount)
				if err != nil {
					display = b.Amount
				}
				fmt.Printf("  %s: %s (as of %s)\n", b.Asset, display, b.ObservedAt.Format("15:04:05"))
			}
			return nil
		},
	}
}
