// Command grepd is grepd's CLI harness: an "index" subcommand that
// ingests directory trees and reports corpus statistics, and a "serve"
// subcommand that additionally answers queries from stdin. It replaces
// the teacher's two single-purpose binaries (cmd/cindex, cmd/cserver)
// with one cobra-based binary, matching spec.md §6's note that the
// CLI/RPC front-end is a thin external harness over the core.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "grepd",
	Short: "In-memory regex code search",
}

func main() {
	log.SetPrefix("grepd: ")
	log.SetFlags(0)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
