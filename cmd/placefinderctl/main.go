package main

import (
	"os"

	"placefinder-go/cmd/placefinderctl/tool/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
