package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "field-service",
	Short: "Field registry with boundary capture and cost analytics",
	Long: `field-service stores fields with their boundaries, captures new
boundaries by hand or by GPS track, and derives area, cost structure and
profitability from the recorded field operations.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, areaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
