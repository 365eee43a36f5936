package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/methodlens/methodlens/domain"
	"github.com/methodlens/methodlens/internal/analyzer"
	"github.com/methodlens/methodlens/internal/config"
	"github.com/methodlens/methodlens/service"
)

// ClonesCommand represents the clones command
type ClonesCommand struct {
	configPath string
	format     string
	threshold  int
	pairsPath  string
}

// NewClonesCommand creates a new clones command
func NewClonesCommand() *ClonesCommand {
	return &ClonesCommand{}
}

// CreateCobraCommand creates the cobra command for single-revision clone detection
func (c *ClonesCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clones <revision.csv>",
		Short: "Detect and group clones within one revision snapshot",
		Long: `Detect near-duplicate code blocks within a single revision snapshot and
fold them into transitive clone groups.

The snapshot is a CSV block table with pre-tokenized method sequences.
Alternatively an externally produced clone-pair table can be grouped
directly with --pairs.

Examples:
  # Detect and group clones in one snapshot
  methodlens clones r001.csv

  # Group an existing clone-pair table against a snapshot's blocks
  methodlens clones r001.csv --pairs pairs.csv

  # Emit machine-readable output
  methodlens clones r001.csv --format json`,
		Args: cobra.ExactArgs(1),
		RunE: c.runClones,
	}

	// Add flags
	cmd.Flags().StringVarP(&c.configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVarP(&c.format, "format", "o", "", "Output format: text, json, yaml, csv")
	cmd.Flags().IntVarP(&c.threshold, "threshold", "t", 0, "Group formation threshold (0-100)")
	cmd.Flags().StringVar(&c.pairsPath, "pairs", "", "Group an external clone-pair table instead of detecting")

	return cmd
}

// runClones executes the clones command
func (c *ClonesCommand) runClones(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	if c.format != "" {
		cfg.Output.Format = c.format
	}
	if c.threshold > 0 {
		cfg.Grouping.Threshold = c.threshold
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reader := service.NewBlockReader()
	rev, err := reader.ReadRevisionFile(args[0])
	if err != nil {
		return err
	}

	svc, err := service.NewHistoryService(cfg, nil)
	if err != nil {
		return err
	}

	var groups []*domain.CloneGroup
	if c.pairsPath != "" {
		groups, err = c.groupExternalPairs(cfg, reader, rev)
		if err != nil {
			return err
		}
	} else {
		report := svc.AnalyzeRevision(rev)
		groups = report.Groups
	}

	formatter := service.NewOutputFormatter()
	return formatter.FormatGroups(groups, domain.OutputFormat(cfg.Output.Format), cmd.OutOrStdout())
}

// groupExternalPairs groups a pre-computed clone-pair table over the
// snapshot's blocks.
func (c *ClonesCommand) groupExternalPairs(cfg *config.Config, reader *service.BlockReader, rev *domain.Revision) ([]*domain.CloneGroup, error) {
	f, err := os.Open(c.pairsPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open clone-pair table %s: %w", c.pairsPath, err)
	}
	defer func() { _ = f.Close() }()

	records, err := reader.ReadClonePairs(f)
	if err != nil {
		return nil, err
	}

	grouper, err := analyzer.NewGroupDetector(cfg.Grouping.Threshold)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(rev.Blocks))
	for i, b := range rev.Blocks {
		ids[i] = b.ID
	}
	return grouper.Detect(records, ids), nil
}

// NewClonesCmd creates and returns the clones cobra command
func NewClonesCmd() *cobra.Command {
	clonesCommand := NewClonesCommand()
	return clonesCommand.CreateCobraCommand()
}
