package main

import (
	"os"

	"github.com/divsim/divsim/cmd/divsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
