// Package main is the entry point for the dfctl CLI client.
package main

import (
	"github.com/donaldgifford/deal-finder/cmd/dfctl/cmd"
)

func main() {
	cmd.Execute()
}
