package main

import (
	"os"

	"github.com/deidaraiorek/sitesearch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
