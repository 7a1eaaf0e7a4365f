package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/kvist-dev/bronzeload/internal/cli"
	"github.com/kvist-dev/bronzeload/pkg/bronzeload"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(bronzeload.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(bronzeload.ExitCodeForError(err))
	}
}
