package config_test

import (
	"fmt"

	"github.com/waleedabsoluit/stealth-scan-trader/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Server running on port: %s\n", cfg.Port)
	fmt.Printf("Market data provider: %s\n", cfg.MarketData.Provider)
	fmt.Printf("Scan schedule: %s\n", cfg.ScanSchedule)
}
