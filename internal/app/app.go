// Package app is the sift command line interface. Every command follows the
// same shape: parse flags, load the .env file and configuration, then hand
// off to the packages doing the actual work.
package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "profile":
		return runProfile(args[1:])
	case "clean":
		return runClean(args[1:])
	case "dedup":
		return runDedup(args[1:])
	case "process", "run-once":
		return runProcess(args[1:])
	case "plates":
		return runPlates(args[1:])
	case "serve":
		return runServe(args[1:])
	case "hash-password":
		return runHashPassword(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "sift CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  sift <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health         Verify configuration and database connectivity")
	fmt.Fprintln(os.Stderr, "  validate       Check a Bibliojobs CSV export for structural problems")
	fmt.Fprintln(os.Stderr, "  profile        Compute per-column data-quality statistics")
	fmt.Fprintln(os.Stderr, "  clean          Clean a CSV export and write the result")
	fmt.Fprintln(os.Stderr, "  dedup          Remove duplicate job postings from a CSV export")
	fmt.Fprintln(os.Stderr, "  process        Run clean + dedup + profile and write an Excel report")
	fmt.Fprintln(os.Stderr, "  run-once       Alias for process")
	fmt.Fprintln(os.Stderr, "  plates         Refresh the license plate cache from Wikidata")
	fmt.Fprintln(os.Stderr, "  serve          Start the Echo API server")
	fmt.Fprintln(os.Stderr, "  hash-password  Generate a bcrypt hash for SIFT_ADMIN_PASSWORD_HASH")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"sift <command> -h\" for command-specific flags.")
}
