package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	_ "ddsforge/internal/codec/nvtt"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
