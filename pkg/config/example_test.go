package config_test

import (
	"fmt"

	"github.com/wonny/volscan/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Input workbook: %s\n", cfg.Scanner.InputWorkbook)
	fmt.Printf("Poll interval: %s\n", cfg.Scanner.PollInterval)
	fmt.Printf("Feed exchange: %s\n", cfg.FMP.Exchange)
}
