package main

import (
	"os"

	"github.com/tbracken/newsgraph/cmd/newsgraph/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
