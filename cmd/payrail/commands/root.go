package commands

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"payrail/internal/app"
	"payrail/internal/config"
)

var (
	home     string
	cfgPath  string
	password string
	relayURL string
	verbose  bool

	application *app.App
	wiring      *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "payrail",
		Short: "Client for the payrail payment relay",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".payrail")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}
			if cfgPath == "" {
				cfgPath = filepath.Join(home, "payrail.toml")
			}
			rt, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if relayURL != "" {
				rt.RelayURL = relayURL
			}

			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).With().Timestamp().Logger()

			wiring, err = app.NewWire(app.Config{Home: home, Runtime: rt, Log: log})
			if err != nil {
				return err
			}
			application = app.New(wiring, rt)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wiring != nil {
				return wiring.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "data dir (default ~/.payrail)")
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default <home>/payrail.toml)")
	root.PersistentFlags().StringVarP(&password, "password", "p", "", "password protecting wallet and session key")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay websocket URL (overrides config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(initCmd(), authenticateCmd(), balanceCmd(), spendCmd(), rotateCmd(), statusCmd())
	return root.Execute()
}
