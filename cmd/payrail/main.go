package main

import (
	"os"

	"payrail/cmd/payrail/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
