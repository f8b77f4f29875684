// Command stockdash-cli queries the stocks API from the shell.
//
// Usage:
//
//	stockdash-cli symbols
//	stockdash-cli prices AAPL --limit 20
//	stockdash-cli price-at AAPL 2024-01-02
//	stockdash-cli returns AAPL 2024-01-02 2024-03-28
//	stockdash-cli compare AAPL MSFT NVDA --start 2024-01-02 --end 2024-03-28
package main

import (
	"os"

	"stockdash/cmd/stockdash-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
