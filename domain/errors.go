package domain

import (
	"errors"
	"fmt"
)

// DomainError represents errors in the domain layer
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

func (e DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e DomainError) Unwrap() error {
	return e.Cause
}

// Domain error codes
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeParseError   = "PARSE_ERROR"
	ErrCodeSchemaError  = "SCHEMA_ERROR"
	ErrCodeConfigError  = "CONFIG_ERROR"
	ErrCodeIndexError   = "INDEX_ERROR"
	ErrCodeOutputError  = "OUTPUT_ERROR"
)

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) error {
	return DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidInput, message, cause)
}

// NewParseError creates a token sequence parse error
func NewParseError(message string, cause error) error {
	return NewDomainError(ErrCodeParseError, message, cause)
}

// NewSchemaError creates an input table schema error naming the missing columns
func NewSchemaError(table string, missing []string) error {
	return NewDomainError(ErrCodeSchemaError, fmt.Sprintf("table %s is missing required columns: %v", table, missing), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfigError, message, cause)
}

// NewIndexError creates an LSH index error
func NewIndexError(message string, cause error) error {
	return NewDomainError(ErrCodeIndexError, message, cause)
}

// NewOutputError creates an output error
func NewOutputError(message string, cause error) error {
	return NewDomainError(ErrCodeOutputError, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string) error {
	return NewDomainError(ErrCodeInvalidInput, message, nil)
}

// IsParseError reports whether err is a localized token parse error.
func IsParseError(err error) bool {
	var de DomainError
	if errors.As(err, &de) {
		return de.Code == ErrCodeParseError
	}
	return false
}
