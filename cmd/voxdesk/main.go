// Package main is the entry point for the voxdesk CLI.
//
// Usage:
//
//	voxdesk [flags] <command> [args]
//
// Commands:
//
//	run        - Start the voice assistant
//	config     - Configuration management
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/voxdesk/voxdesk/cmd/voxdesk/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
