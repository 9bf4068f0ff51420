package main

import (
	"os"

	"github.com/abhisek/stresslens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
