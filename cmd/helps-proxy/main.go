package main

import (
	"fmt"
	"os"
	"slices"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "helps-proxy: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse subcommand from os.Args.
	subcmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		subcmd = args[0]
		args = args[1:]
	}

	// Accept the flag spelling too.
	if slices.Contains(args, "--list-tools") {
		subcmd = "list-tools"
	}

	switch subcmd {
	case "serve":
		return cmdServe(args)
	case "list-tools":
		return cmdListTools(args)
	default:
		return fmt.Errorf("unknown command: %s\nUsage: helps-proxy [serve|list-tools]", subcmd)
	}
}
