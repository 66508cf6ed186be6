package main

import (
	"os"

	"github.com/wonny/volscan/cmd/volscan/commands"
)

// main is the entry point for the volscan CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/volscan [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
