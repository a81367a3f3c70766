// cmd/netbuilder/main.go
package main

import (
	"os"

	"github.com/mathursrus/LinkedIn-Network/internal/cli"
)

func main() {
	// Commands that run jobs handle SIGINT/SIGTERM themselves so interrupted
	// jobs are recorded before exit.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
