// Package main provides the boundcheck CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/boundcheck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
