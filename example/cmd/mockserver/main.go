// Standalone fake appointment API for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/slotwatch watch -c example/config.yaml
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jpalmerr/slotwatch/internal/mockcowin"
)

func main() {
	fmt.Println("Mock appointment API starting on :9999")
	fmt.Println("Center capacities flip between empty and open every 20-60s")
	fmt.Println("Try: slotwatch states --api http://localhost:9999")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	if err := mockcowin.New(slog.Default()).ListenAndServe(":9999"); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
