package main

import (
	"os"

	"smiv/cmd/smiv/cmd"
)

var version = "dev"

func main() {
	if err := cmd.NewRoot(version).Execute(); err != nil {
		os.Exit(1)
	}
}
