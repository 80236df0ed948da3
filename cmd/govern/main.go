package main

import (
	"os"

	"github.com/rustyeddy/governance/cmd/govern/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
