package errata

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrStaleWrite is returned by inserts that collided with a row written
	// concurrently by another process.
	ErrStaleWrite = errors.New("stale write conflict")

	ErrIndexingExhausted = errors.New("failed indexing errata, maximum retries encountered")
	ErrUnknownErrataType = errors.New("unknown errata type")
)

// IndexingExhaustedError reports that child rows of an erratum could still
// not be stored after the retry budget was used up.
type IndexingExhaustedError struct {
	Kind      string
	Remaining int
}

func (e *IndexingExhaustedError) Error() string {
	return fmt.Sprintf("%s: %d %s rows still missing", ErrIndexingExhausted, e.Remaining, e.Kind)
}

func (e *IndexingExhaustedError) Is(target error) bool {
	return target == ErrIndexingExhausted
}

// PreconditionError is returned when a module stream link refers to a
// package that was not stored for the erratum.
type PreconditionError struct {
	NVREA        string
	ModuleStream ModuleStream
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf(
		"module stream %s:%s references package %s which is not indexed for the erratum",
		e.ModuleStream.Name, e.ModuleStream.Stream, e.NVREA,
	)
}

// ConflictFunc reports whether err was caused by a uniqueness violation.
type ConflictFunc func(error) bool

// IsUniqueViolation is the default ConflictFunc.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
