package main

import (
	"context"
	"fmt"
	"os"

	"glowlink/pkg/app"
)

// main exposes a root-level entry point so operators can simply run `go run glowlink.go`.
func main() {
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "glowlink: %v\n", err)
		os.Exit(1)
	}
}
