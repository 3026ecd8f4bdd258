// Command server runs the inventar HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "inventar",
	Short: "Inventar is a single-tenant inventory tracking service",
	Long: `Inventar tracks inventory items grouped into categories for
authenticated users, with image attachments and aggregate statistics,
backed by a single SQLite database.`,
	Version: Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
