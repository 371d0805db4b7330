package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// rotate: replace the session key if it is expired or its allowance for the
// asset is spent.
func rotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate <asset>",
		Short: "Rotate the session key if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("password required (-p)")
			}
			key, rotated, err := application.RotateIfNeeded(args[0], password)
			if err != nil {
				return err
			}
			if rotated {
				fmt.Printf("Rotated. New session key %s expires %s\n",
					key.PublicIdentity(), key.ExpiresAt.Format("2006-01-02 15:04:05"))
				return nil
			}
			fmt.Printf("No rotation needed. Key %s expires %s\n",
				key.PublicIdentity(), key.ExpiresAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
