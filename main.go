package main

import (
	"os"

	"github.com/cloudbees-io/gitversion/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
