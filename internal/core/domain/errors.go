package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")

	// Upload boundary.
	ErrFileTooLarge        = errors.New("file too large")
	ErrTooManyFiles        = errors.New("too many files")
	ErrUnexpectedField     = errors.New("unexpected file field")
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// Extraction and analysis.
	ErrExtractionFailed = errors.New("extraction failed")

	// Text-generation service.
	ErrModelUnavailable         = errors.New("model service unavailable")
	ErrModelResponseUnparseable = errors.New("model response unparseable")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
