package main

import (
	"os"

	"github.com/bianoble/yoga-sync/cmd/yoga-sync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
