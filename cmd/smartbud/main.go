package main

import (
	"os"

	"github.com/smartbud-dev/smartbud/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
