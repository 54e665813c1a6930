package main

import (
	"os"

	"github.com/vendor-payment-scheduler/internal/cli"
)

func main() {
	if err := cli.BuildCLI().Execute(); err != nil {
		os.Exit(1)
	}
}
