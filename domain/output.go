package domain

import (
	"io"
)

// OutputFormat represents the output format for results
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatCSV  OutputFormat = "csv"
)

// IsValid reports whether the format is one of the supported values.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatCSV:
		return true
	}
	return false
}

// ProgressManager manages progress tracking for long multi-revision runs
type ProgressManager interface {
	// Initialize sets up progress tracking with the maximum value
	Initialize(maxValue int)

	// Start starts the progress bar
	Start()

	// Complete marks the progress as completed
	Complete(success bool)

	// Update updates the progress
	Update(processed, total int)

	// SetWriter sets the output writer for progress bars
	SetWriter(writer io.Writer)

	// IsInteractive returns true if progress bars should be shown
	IsInteractive() bool

	// Close cleans up any resources
	Close()
}

// HistoryFormatter formats the tables produced by a history run for
// consumption by external collaborators.
type HistoryFormatter interface {
	FormatGroups(groups []*CloneGroup, format OutputFormat, writer io.Writer) error
	FormatMatchResult(result *MatchResult, format OutputFormat, writer io.Writer) error
	FormatLineage(table *LineageTable, format OutputFormat, writer io.Writer) error
}
