package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/methodlens/methodlens/domain"
	"github.com/methodlens/methodlens/internal/config"
	"github.com/methodlens/methodlens/service"
)

// TrackCommand represents the track command
type TrackCommand struct {
	configPath string
	format     string
	threshold  int
	noProgress bool
}

// NewTrackCommand creates a new track command
func NewTrackCommand() *TrackCommand {
	return &TrackCommand{}
}

// CreateCobraCommand creates the cobra command for multi-revision tracking
func (t *TrackCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track <snapshots...>",
		Short: "Track methods across an ordered revision sequence",
		Long: `Track methods across a chronological sequence of revision snapshots.

Each snapshot is a CSV block table; snapshots are processed in the given
order (directories are expanded with the configured include patterns and
sorted by path). For every revision the pipeline detects clones, builds
clone groups, matches blocks against the previous revision, and threads
global method lineage with explicit merge flags.

Examples:
  # Track across explicit snapshot files
  methodlens track r001.csv r002.csv r003.csv

  # Track every snapshot under a directory (sorted by path)
  methodlens track ./history/

  # Emit the lineage table as CSV
  methodlens track ./history/ --format csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: t.runTrack,
	}

	// Add flags
	cmd.Flags().StringVarP(&t.configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVarP(&t.format, "format", "o", "", "Output format: text, json, yaml, csv")
	cmd.Flags().IntVarP(&t.threshold, "threshold", "t", 0, "Fuzzy match threshold (0-100)")
	cmd.Flags().BoolVar(&t.noProgress, "no-progress", false, "Disable progress reporting")

	return cmd
}

// runTrack executes the track command
func (t *TrackCommand) runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(t.configPath)
	if err != nil {
		return err
	}
	if t.format != "" {
		cfg.Output.Format = t.format
	}
	if t.threshold > 0 {
		cfg.Matching.Threshold = t.threshold
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reader := service.NewBlockReader()
	files, err := t.resolveSnapshotFiles(reader, cfg, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no revision snapshots found")
	}

	revisions := make([]*domain.Revision, 0, len(files))
	for _, path := range files {
		rev, err := reader.ReadRevisionFile(path)
		if err != nil {
			return err
		}
		revisions = append(revisions, rev)
	}

	var progress domain.ProgressManager
	if !t.noProgress {
		progress = service.NewProgressManager()
	}

	svc, err := service.NewHistoryService(cfg, progress)
	if err != nil {
		return err
	}

	report, err := svc.Track(cmd.Context(), revisions)
	if err != nil {
		return err
	}

	formatter := service.NewOutputFormatter()
	format := domain.OutputFormat(cfg.Output.Format)
	out := cmd.OutOrStdout()

	for _, revReport := range report.Revisions {
		if revReport.Matches == nil {
			continue
		}
		fmt.Fprintf(out, "# matches into %s\n", revReport.Revision)
		if err := formatter.FormatMatchResult(revReport.Matches, format, out); err != nil {
			return err
		}
	}
	fmt.Fprintln(out, "# lineage")
	return formatter.FormatLineage(report.Lineage, format, out)
}

// resolveSnapshotFiles expands directory arguments using the configured
// include/exclude patterns; explicit file arguments keep their given order.
func (t *TrackCommand) resolveSnapshotFiles(reader *service.BlockReader, cfg *config.Config, args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		discovered, err := reader.DiscoverRevisionFiles([]string{arg}, cfg.Input.IncludePatterns, cfg.Input.ExcludePatterns)
		if err != nil {
			return nil, err
		}
		files = append(files, discovered...)
	}
	return files, nil
}

// NewTrackCmd creates and returns the track cobra command
func NewTrackCmd() *cobra.Command {
	trackCommand := NewTrackCommand()
	return trackCommand.CreateCobraCommand()
}
