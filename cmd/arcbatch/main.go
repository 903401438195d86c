package main

import (
	"os"

	"arcbatch/cmd"
)

func main() {
	// cobra prints the error itself; a non-zero exit here only ever means a
	// flag or format problem, never a failed batch entry.
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
