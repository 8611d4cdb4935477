package main

import (
	"os"

	"github.com/waleedabsoluit/stealth-scan-trader/cmd/stealth/commands"
)

// main is the entry point for the stealth CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/stealth [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
