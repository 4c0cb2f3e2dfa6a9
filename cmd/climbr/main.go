// Package main provides the entry point for the climbr CLI.
package main

import (
	"fmt"
	"os"

	"github.com/rpggio/climbr/cmd/climbr/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
