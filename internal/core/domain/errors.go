package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRepositoryNotFound    = errors.New("repository not found")
	ErrDocumentationNotFound = errors.New("documentation not found")
	ErrDuplicateRepository   = errors.New("repository already registered")
	ErrInvalidInput          = errors.New("invalid input")
	ErrFetch                 = errors.New("repository fetch failed")
	ErrTemporary             = errors.New("temporary failure")
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
