package main

import (
	"os"

	"github.com/compvault/compvault/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
