// Package main is the entry point for the asset lifecycle scheduler.
package main

import (
	"os"

	"asset_lifecycle_scheduler/cmd/scheduler/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
