package main

import (
	"context"
	"fmt"
	"os"

	"glowlink/pkg/app"
)

// main acts as a thin adapter so existing process managers can keep using cmd/server.
func main() {
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "glowlink: %v\n", err)
		os.Exit(1)
	}
}
