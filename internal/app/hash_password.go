package app

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bibliojobs/sift/internal/auth"
)

// runHashPassword prints a bcrypt hash suitable for SIFT_ADMIN_PASSWORD_HASH.
// The password comes from the first positional argument or, when absent,
// from stdin so it stays out of the shell history.
func runHashPassword(args []string) int {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	password := fs.Arg(0)
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintf(os.Stderr, "Reading the password failed: %v\n", err)
			return 1
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		fmt.Fprintln(os.Stderr, "hash-password: the password must not be empty")
		return 2
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Hashing failed: %v\n", err)
		return 1
	}
	fmt.Println(hash)
	return 0
}
