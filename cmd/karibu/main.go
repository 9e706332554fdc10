package main

import (
	"os"

	"github.com/zerobertocosta/Karibu/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
