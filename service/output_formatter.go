package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/methodlens/methodlens/domain"
)

// OutputFormatterImpl implements the HistoryFormatter interface
type OutputFormatterImpl struct{}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter() domain.HistoryFormatter {
	return &OutputFormatterImpl{}
}

// FormatGroups writes clone groups in the requested format.
func (f *OutputFormatterImpl) FormatGroups(groups []*domain.CloneGroup, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return writeJSON(writer, groups)
	case domain.OutputFormatYAML:
		return writeYAML(writer, groups)
	case domain.OutputFormatCSV:
		return f.writeGroupsCSV(groups, writer)
	case domain.OutputFormatText:
		return f.writeGroupsText(groups, writer)
	default:
		return domain.NewOutputError(fmt.Sprintf("unsupported output format: %s", format), nil)
	}
}

// FormatMatchResult writes a cross-revision match result in the requested format.
func (f *OutputFormatterImpl) FormatMatchResult(result *domain.MatchResult, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return writeJSON(writer, result)
	case domain.OutputFormatYAML:
		return writeYAML(writer, result)
	case domain.OutputFormatCSV:
		return f.writeMatchesCSV(result, writer)
	case domain.OutputFormatText:
		return f.writeMatchesText(result, writer)
	default:
		return domain.NewOutputError(fmt.Sprintf("unsupported output format: %s", format), nil)
	}
}

// FormatLineage writes a lineage table in the requested format.
func (f *OutputFormatterImpl) FormatLineage(table *domain.LineageTable, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return writeJSON(writer, lineageRows(table))
	case domain.OutputFormatYAML:
		return writeYAML(writer, lineageRows(table))
	case domain.OutputFormatCSV:
		return f.writeLineageCSV(table, writer)
	case domain.OutputFormatText:
		return f.writeLineageText(table, writer)
	default:
		return domain.NewOutputError(fmt.Sprintf("unsupported output format: %s", format), nil)
	}
}

func writeJSON(writer io.Writer, value interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return domain.NewOutputError("failed to encode JSON output", err)
	}
	return nil
}

func writeYAML(writer io.Writer, value interface{}) error {
	encoder := yaml.NewEncoder(writer)
	defer func() { _ = encoder.Close() }()
	if err := encoder.Encode(value); err != nil {
		return domain.NewOutputError("failed to encode YAML output", err)
	}
	return nil
}

func (f *OutputFormatterImpl) writeGroupsCSV(groups []*domain.CloneGroup, writer io.Writer) error {
	w := csv.NewWriter(writer)
	if err := w.Write([]string{"group_id", "size", "members", "avg_similarity", "density"}); err != nil {
		return domain.NewOutputError("failed to write CSV output", err)
	}
	for _, g := range groups {
		row := []string{
			g.RootID,
			strconv.Itoa(g.Size()),
			strings.Join(g.Members, ";"),
			fmt.Sprintf("%.1f", g.AverageSimilarity()),
			fmt.Sprintf("%.2f", g.Density()),
		}
		if err := w.Write(row); err != nil {
			return domain.NewOutputError("failed to write CSV output", err)
		}
	}
	w.Flush()
	return w.Error()
}

func (f *OutputFormatterImpl) writeGroupsText(groups []*domain.CloneGroup, writer io.Writer) error {
	cloneGroups := 0
	for _, g := range groups {
		if g.IsClone() {
			cloneGroups++
		}
	}
	fmt.Fprintf(writer, "Clone Groups: %d (%d blocks total)\n", cloneGroups, totalMembers(groups))
	for _, g := range groups {
		if !g.IsClone() {
			continue
		}
		fmt.Fprintf(writer, "  %s: %d blocks, avg similarity %.1f, density %.2f\n",
			g.RootID, g.Size(), g.AverageSimilarity(), g.Density())
		for _, member := range g.Members {
			fmt.Fprintf(writer, "    - %s\n", member)
		}
	}
	return nil
}

func (f *OutputFormatterImpl) writeMatchesCSV(result *domain.MatchResult, writer io.Writer) error {
	w := csv.NewWriter(writer)
	if err := w.Write([]string{"source_id", "target_id", "match_type", "similarity"}); err != nil {
		return domain.NewOutputError("failed to write CSV output", err)
	}
	for _, sourceID := range sortedKeys(result.Forward) {
		row := []string{
			sourceID,
			result.Forward[sourceID],
			string(result.Types[sourceID]),
			strconv.Itoa(result.Similarities[sourceID]),
		}
		if err := w.Write(row); err != nil {
			return domain.NewOutputError("failed to write CSV output", err)
		}
	}
	w.Flush()
	return w.Error()
}

func (f *OutputFormatterImpl) writeMatchesText(result *domain.MatchResult, writer io.Writer) error {
	fmt.Fprintf(writer, "Matches: %d\n", result.Len())
	for _, sourceID := range sortedKeys(result.Forward) {
		fmt.Fprintf(writer, "  %s -> %s (%s, %d)\n",
			sourceID, result.Forward[sourceID], result.Types[sourceID], result.Similarities[sourceID])
	}
	return nil
}

// lineageRow flattens one assignment for serialized output.
type lineageRow struct {
	Revision string `json:"revision" yaml:"revision"`
	BlockID  string `json:"block_id" yaml:"block_id"`
	GlobalID string `json:"global_block_id" yaml:"global_block_id"`
}

func lineageRows(table *domain.LineageTable) []lineageRow {
	rows := make([]lineageRow, 0, len(table.Assignments))
	for key, id := range table.Assignments {
		rows = append(rows, lineageRow{Revision: key.Revision, BlockID: key.BlockID, GlobalID: string(id)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Revision != rows[j].Revision {
			return rows[i].Revision < rows[j].Revision
		}
		return rows[i].BlockID < rows[j].BlockID
	})
	return rows
}

func (f *OutputFormatterImpl) writeLineageCSV(table *domain.LineageTable, writer io.Writer) error {
	w := csv.NewWriter(writer)
	if err := w.Write([]string{"revision", "block_id", "global_block_id"}); err != nil {
		return domain.NewOutputError("failed to write CSV output", err)
	}
	for _, row := range lineageRows(table) {
		if err := w.Write([]string{row.Revision, row.BlockID, row.GlobalID}); err != nil {
			return domain.NewOutputError("failed to write CSV output", err)
		}
	}
	w.Flush()
	return w.Error()
}

func (f *OutputFormatterImpl) writeLineageText(table *domain.LineageTable, writer io.Writer) error {
	fmt.Fprintf(writer, "Lineage: %d assignments over %d revisions\n", len(table.Assignments), len(table.Revisions))
	for _, row := range lineageRows(table) {
		fmt.Fprintf(writer, "  %s@%s -> %s\n", row.BlockID, row.Revision, row.GlobalID)
	}
	if len(table.Merges) > 0 {
		fmt.Fprintf(writer, "Merges: %d\n", len(table.Merges))
		for _, flag := range table.Merges {
			fmt.Fprintf(writer, "  %s\n", flag.String())
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func totalMembers(groups []*domain.CloneGroup) int {
	total := 0
	for _, g := range groups {
		total += g.Size()
	}
	return total
}
