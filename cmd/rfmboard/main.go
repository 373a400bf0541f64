package main

import (
	"os"

	"github.com/banktrust-dev/rfmboard/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
