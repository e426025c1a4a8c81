package main

import (
	"os"

	"velora/cmd/veloractl/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
