package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/methodlens/methodlens/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "methodlens",
	Short: "Cross-revision method tracking and clone detection",
	Long: `methodlens tracks source-code methods across repository revisions and
detects near-duplicate code blocks from pre-tokenized snapshots.

Features:
  • Three-phase clone detection (n-gram location, filtration, LCS verification)
  • Exact and fuzzy cross-revision method matching with LSH acceleration
  • Transitive clone grouping over pair tables
  • Global method lineage with explicit merge flags`,
	Version: version.Short(),
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	// Add main subcommands
	rootCmd.AddCommand(NewClonesCmd())
	rootCmd.AddCommand(NewTrackCmd())
	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewInitCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
