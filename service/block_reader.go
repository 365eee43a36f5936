package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"

	"github.com/methodlens/methodlens/domain"
)

// Block table columns. token_hash is optional; a missing or empty value is
// recomputed from the token sequence.
var requiredBlockColumns = []string{
	"block_id",
	"file_path",
	"start_line",
	"end_line",
	"function_name",
	"return_type",
	"parameters",
	"token_sequence",
}

// Clone-pair table columns. lcs_similarity cells may be empty.
var requiredPairColumns = []string{
	"block_id_1",
	"block_id_2",
	"ngram_similarity",
	"lcs_similarity",
}

// BlockReader loads revision snapshots and clone-pair tables from CSV files.
type BlockReader struct{}

// NewBlockReader creates a new block reader service
func NewBlockReader() *BlockReader {
	return &BlockReader{}
}

// ReadRevision reads one revision's block table. The schema is validated
// before any row is parsed; missing columns are named in the error. A row
// with a malformed token sequence still loads, carrying its parse error for
// the matching layer to skip.
func (r *BlockReader) ReadRevision(name string, reader io.Reader) (*domain.Revision, error) {
	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("cannot read block table header for revision %s", name), err)
	}
	columns, err := validateSchema("blocks", header, requiredBlockColumns)
	if err != nil {
		return nil, err
	}
	hashCol, hasHashCol := columns["token_hash"]

	rev := &domain.Revision{Name: name}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("malformed CSV row at line %d in revision %s", line, name), err)
		}

		startLine, err := atoiField(record, columns["start_line"], "start_line", line)
		if err != nil {
			return nil, err
		}
		endLine, err := atoiField(record, columns["end_line"], "end_line", line)
		if err != nil {
			return nil, err
		}

		rawTokens := field(record, columns["token_sequence"])
		tokenHash := ""
		if hasHashCol {
			tokenHash = field(record, hashCol)
		}
		if tokenHash == "" {
			tokenHash = ComputeTokenHash(rawTokens)
		}

		block := domain.NewCodeBlock(
			field(record, columns["block_id"]),
			field(record, columns["file_path"]),
			startLine,
			endLine,
			field(record, columns["function_name"]),
			field(record, columns["return_type"]),
			field(record, columns["parameters"]),
			tokenHash,
			rawTokens,
		)
		rev.Blocks = append(rev.Blocks, block)
	}
	return rev, nil
}

// ReadRevisionFile reads one revision snapshot from disk, naming the revision
// after the file (without extension).
func (r *BlockReader) ReadRevisionFile(path string) (*domain.Revision, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("cannot open revision file %s", path), err)
	}
	defer func() { _ = f.Close() }()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return r.ReadRevision(name, f)
}

// ReadClonePairs reads an externally supplied clone-pair table. Empty
// lcs_similarity cells are preserved as "no LCS evidence".
func (r *BlockReader) ReadClonePairs(reader io.Reader) ([]*domain.ClonePairRecord, error) {
	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, domain.NewInvalidInputError("cannot read clone-pair table header", err)
	}
	columns, err := validateSchema("clone_pairs", header, requiredPairColumns)
	if err != nil {
		return nil, err
	}

	var records []*domain.ClonePairRecord
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("malformed CSV row at line %d in clone-pair table", line), err)
		}

		ngram, err := atoiField(record, columns["ngram_similarity"], "ngram_similarity", line)
		if err != nil {
			return nil, err
		}

		rec := &domain.ClonePairRecord{
			BlockID1:   field(record, columns["block_id_1"]),
			BlockID2:   field(record, columns["block_id_2"]),
			NGramScore: ngram,
		}
		if raw := field(record, columns["lcs_similarity"]); raw != "" {
			lcs, err := atoiField(record, columns["lcs_similarity"], "lcs_similarity", line)
			if err != nil {
				return nil, err
			}
			rec.LCSScore = lcs
			rec.HasLCS = true
		}
		records = append(records, rec)
	}
	return records, nil
}

// DiscoverRevisionFiles finds revision snapshot files under the given roots
// using doublestar include/exclude patterns, returning them sorted by path so
// lexicographic file naming yields chronological order.
func (r *BlockReader) DiscoverRevisionFiles(paths, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("cannot access path: %s", root), err)
		}
		if !info.IsDir() {
			if matchesPatterns(root, includePatterns, excludePatterns) && !seen[root] {
				files = append(files, root)
				seen[root] = true
			}
			continue
		}

		walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				// Skip unreadable entries but keep walking
				return nil
			}
			if info.IsDir() {
				if strings.HasPrefix(info.Name(), ".") && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if matchesPatterns(path, includePatterns, excludePatterns) && !seen[path] {
				files = append(files, path)
				seen[path] = true
			}
			return nil
		})
		if walkErr != nil {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("failed to walk directory %s", root), walkErr)
		}
	}

	sort.Strings(files)
	return files, nil
}

// ComputeTokenHash derives a content hash from the serialized token sequence.
func ComputeTokenHash(rawTokens string) string {
	return strconv.FormatUint(xxhash.Sum64String(rawTokens), 16)
}

// validateSchema maps column names to indices and reports every missing
// required column at once.
func validateSchema(table string, header, required []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, domain.NewSchemaError(table, missing)
	}
	return columns, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func atoiField(record []string, idx int, name string, line int) (int, error) {
	raw := field(record, idx)
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewInvalidInputError(fmt.Sprintf("invalid %s %q at line %d", name, raw, line), err)
	}
	return value, nil
}

func matchesPatterns(path string, includePatterns, excludePatterns []string) bool {
	for _, pattern := range excludePatterns {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return false
		}
		if matched, _ := doublestar.Match(pattern, filepath.Base(path)); matched {
			return false
		}
	}

	if len(includePatterns) == 0 {
		return true
	}
	for _, pattern := range includePatterns {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}
	return false
}
