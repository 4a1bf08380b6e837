package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Ctrl-C on a follow command is a normal exit, not an error worth
		// printing.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "physica:", err)
		}
		os.Exit(1)
	}
}
