package main

import (
	"os"

	wintercmder "github.com/papercomputeco/winter/cmd/winter"
)

func main() {
	cmd := wintercmder.NewWinterCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
