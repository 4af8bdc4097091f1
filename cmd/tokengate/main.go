package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "demo":
		if err := demo(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "layout":
		if err := layoutDiff(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "events":
		if err := events(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("tokengate version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengate - bridged token core with timelocked upgrade governance

Usage:
  tokengate <command> [options]

Commands:
  demo     Run the full token lifecycle against a local instance
  layout   Check storage-layout compatibility between two versions
  events   Dump a change-record journal
  version  Print version
  help     Show this help

Environment:
  TOKENGATE_JOURNAL            Journal backend: memory, jsonl, sqlite, postgres
  TOKENGATE_JOURNAL_PATH       File path for jsonl/sqlite journals
  TOKENGATE_DATABASE_URL       Connection string for the postgres journal
  TOKENGATE_MIN_DELAY_SECONDS  Timelock minimum delay (default 172800)
  TOKENGATE_LOG_LEVEL          debug, info, warn or error

Run 'tokengate <command> --help' for command options.`)
}
