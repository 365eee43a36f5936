package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// CodeBlock is one method-level unit extracted from a revision snapshot. The
// token sequence arrives in its serialized form and is parsed eagerly; a
// malformed sequence marks the block rather than failing the load, so a single
// bad row never aborts an analysis.
type CodeBlock struct {
	ID           string `json:"id" yaml:"id"`
	FilePath     string `json:"file_path" yaml:"file_path"`
	StartLine    int    `json:"start_line" yaml:"start_line"`
	EndLine      int    `json:"end_line" yaml:"end_line"`
	FunctionName string `json:"function_name" yaml:"function_name"`
	ReturnType   string `json:"return_type,omitempty" yaml:"return_type,omitempty"`
	Parameters   string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	TokenHash    string `json:"token_hash" yaml:"token_hash"`
	RawTokens    string `json:"raw_tokens,omitempty" yaml:"raw_tokens,omitempty"`

	tokens   []int
	parseErr error
}

// NewCodeBlock builds a block and parses its serialized token sequence. A
// parse failure is recorded on the block and surfaces from Tokens.
func NewCodeBlock(id, filePath string, startLine, endLine int, functionName, returnType, parameters, tokenHash, rawTokens string) *CodeBlock {
	b := &CodeBlock{
		ID:           id,
		FilePath:     filePath,
		StartLine:    startLine,
		EndLine:      endLine,
		FunctionName: functionName,
		ReturnType:   returnType,
		Parameters:   parameters,
		TokenHash:    tokenHash,
		RawTokens:    rawTokens,
	}
	b.tokens, b.parseErr = ParseTokenSequence(rawTokens)
	return b
}

// Tokens returns the parsed token sequence, or the recorded parse error when
// the serialized form was malformed.
func (b *CodeBlock) Tokens() ([]int, error) {
	if b.parseErr != nil {
		return nil, b.parseErr
	}
	return b.tokens, nil
}

// TokenCount returns the parsed sequence length; 0 for malformed blocks.
func (b *CodeBlock) TokenCount() int {
	return len(b.tokens)
}

// LineCount returns the source line span of the block.
func (b *CodeBlock) LineCount() int {
	if b.EndLine < b.StartLine {
		return 0
	}
	return b.EndLine - b.StartLine + 1
}

// ParseTokenSequence decodes the bracketed semicolon-separated encoding,
// e.g. "[12;45;7]". The empty string and "[]" decode to an empty sequence.
// Token ids must be non-negative integers.
func ParseTokenSequence(raw string) ([]int, error) {
	if raw == "" {
		return []int{}, nil
	}
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return nil, NewParseError(fmt.Sprintf("token sequence %q is not bracketed", raw), nil)
	}
	inner := raw[1 : len(raw)-1]
	if inner == "" {
		return []int{}, nil
	}

	parts := strings.Split(inner, ";")
	tokens := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, NewParseError(fmt.Sprintf("invalid token id %q in sequence", part), err)
		}
		if id < 0 {
			return nil, NewParseError(fmt.Sprintf("negative token id %d in sequence", id), nil)
		}
		tokens = append(tokens, id)
	}
	return tokens, nil
}

// FormatTokenSequence is the inverse of ParseTokenSequence.
func FormatTokenSequence(tokens []int) string {
	if len(tokens) == 0 {
		return "[]"
	}
	parts := make([]string, len(tokens))
	for i, id := range tokens {
		parts[i] = strconv.Itoa(id)
	}
	return "[" + strings.Join(parts, ";") + "]"
}

// Revision is one named snapshot of the project's blocks, in file order.
type Revision struct {
	Name   string       `json:"name" yaml:"name"`
	Blocks []*CodeBlock `json:"blocks" yaml:"blocks"`
}

// BlockByID returns the block with the given id, or nil.
func (r *Revision) BlockByID(id string) *CodeBlock {
	for _, b := range r.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}
