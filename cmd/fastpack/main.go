package main

import (
	"os"

	"github.com/zoobzio/fastpack/cmd/fastpack/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
