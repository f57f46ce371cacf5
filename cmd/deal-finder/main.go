// Package main is the entry point for the deal-finder server.
package main

import (
	"os"

	"github.com/donaldgifford/deal-finder/cmd/deal-finder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
