// Package main is the entry point of the delphi CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/delphi/cmd"
	"github.com/huangsam/delphi/internal/persist"
)

func main() {
	defer persist.CloseStores()

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error stopping profiling: %v\n", stopErr)
	}
	if err != nil {
		persist.CloseStores()
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
