package storage

import (
	"errors"
	"fmt"
)

// Common storage errors
var (
	// ErrViewNotFound indicates that view is not defined
	ErrViewNotFound = errors.New("view not found")

	// ErrUnknownColumn indicates that change set references a column missing in view
	ErrUnknownColumn = errors.New("unknown column")

	// ErrReadOnlyColumn indicates an attempt to change a read-only column
	ErrReadOnlyColumn = errors.New("column is read-only")

	// ErrInvalidFilter indicates that filter expression could not be parsed
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidRow indicates that row does not match view definition
	ErrInvalidRow = errors.New("invalid row")

	// ErrVersionConflict indicates that some rows were changed by someone else
	ErrVersionConflict = errors.New("version conflict")
)

// ConflictError сообщает о строках, версия которых не совпала с сохраненной.
// errors.Is(err, ErrVersionConflict) возвращает true.
type ConflictError struct {
	RowIDs []int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: rows %v", ErrVersionConflict, e.RowIDs)
}

// Is позволяет сравнивать ConflictError с ErrVersionConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}
