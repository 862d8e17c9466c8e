package main

import (
	"os"

	"github.com/marat/lexdrill/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
