package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "portfolio-ledger",
	Short: "A CLI for the Golang Portfolio Ledger services",
	Long: `Golang Portfolio Ledger keeps the holdings of a portfolio together with a
tamper-evident, hash-chained audit ledger of every change.

Binaries:
  ledger-service serve    run the HTTP API and the scheduled integrity monitor
  ledger-service verify   verify the ledger once, exit code 1 when it is broken
  migrate up|down         apply or revert the database schema`,
}

func main() {

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'", err)
		os.Exit(1)
	}
}
