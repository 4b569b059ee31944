// Package main is the entry point for the collection-watcher.
package main

import (
	"os"

	"github.com/donaldgifford/collection-watcher/cmd/collection-watcher/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
