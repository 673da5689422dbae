package importer

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrJobNotFound is returned when a job uuid does not resolve
	ErrJobNotFound = errors.New("import job not found")

	// ErrAlreadyCommitted guards job-level idempotency: a job commits at
	// most once and a second attempt fails without touching state.
	ErrAlreadyCommitted = errors.New("import job already committed")

	// ErrJobNotReady rejects committing a job still pending classification
	ErrJobNotReady = errors.New("import job is not classified yet")

	// ErrInvalidStatusFilter is returned for an unknown preview filter
	ErrInvalidStatusFilter = errors.New("invalid status filter")
)

// ConflictError reports a unique-constraint violation during commit. The
// whole transaction is rolled back; the job stays in dry_run and the
// commit is retryable after re-running the dry run.
type ConflictError struct {
	RowIndex int
	Err      error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("commit conflict at row %d: %v", e.RowIndex, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// isUniqueViolation reports whether err is a unique-constraint failure
// from the underlying driver
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || // postgres
		strings.Contains(msg, "UNIQUE constraint failed") // sqlite
}
