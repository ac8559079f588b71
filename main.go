package main

import (
	"os"

	"github.com/spigell/hh-roster/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
