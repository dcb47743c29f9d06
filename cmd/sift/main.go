package main

import (
	"os"

	"github.com/bibliojobs/sift/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
