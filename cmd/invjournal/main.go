package main

import (
	"os"

	"github.com/invjournal/invjournal/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
