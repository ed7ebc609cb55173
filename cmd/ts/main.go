package main

import (
	"fmt"
	"os"

	"timesheet/internal/cli"
)

func main() {
	root := cli.NewRootCommand(buildRuntime)

	err := root.Execute()
	if closeErr := root.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
