package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

// run keeps os.Exit out of the command path so deferred cleanup inside the
// commands still fires before the process exits.
func run() int {
	err := newRootCommand().Execute()
	if err == nil {
		return 0
	}
	// A canceled context means the user interrupted; the signal already
	// told them, so only real failures get printed.
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "hublink: %v\n", err)
	}
	return 1
}
