package main

import (
	"os"

	"github.com/SimpleDioney/Amostras/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
