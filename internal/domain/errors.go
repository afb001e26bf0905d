package domain

import (
	"errors"
	"fmt"
)

var ErrUnhandledDiff = errors.New("unhandled schema diff")
var ErrInvalidVersion = errors.New("invalid schema version")
var ErrMalformedRecord = errors.New("malformed schema record")
var ErrSchemaNameRequired = errors.New("schema name is required")
var ErrSchemaGroupRequired = errors.New("schema group is required")

// UnhandledDiffError reports a pair of values the diff walk cannot classify.
type UnhandledDiffError struct {
	Path    string
	OldKind Kind
	NewKind Kind
}

func (e *UnhandledDiffError) Error() string {
	path := e.Path
	if path == "" {
		path = "$"
	}
	return fmt.Sprintf("%s at %s: cannot compare %s with %s", ErrUnhandledDiff, path, e.OldKind, e.NewKind)
}

func (e *UnhandledDiffError) Unwrap() error {
	return ErrUnhandledDiff
}
