package main

import (
	"os"

	"github.com/lorekeep/lore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
