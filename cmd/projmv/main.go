// Package main is the entry point for the projmv CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/projmv/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
