package purchase

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPurchaseNotFound is returned when a purchase uuid does not resolve
	ErrPurchaseNotFound = errors.New("purchase document not found")

	// ErrPurchaseCancelled rejects confirmation of a cancelled document
	ErrPurchaseCancelled = errors.New("purchase document is cancelled")

	// ErrNotDraft rejects a draft-only transition; either a cancellation of
	// a non-draft document or a confirmation that lost to a concurrent one
	ErrNotDraft = errors.New("purchase document is not a draft")
)

// StrictLinkageError rejects a confirmation entirely when strict mode is
// enabled and one or more lines cannot be resolved to an internal variant.
// No stock is touched for any line.
type StrictLinkageError struct {
	SKUs []string
}

func (e *StrictLinkageError) Error() string {
	return fmt.Sprintf("unresolved purchase lines in strict mode: %s", strings.Join(e.SKUs, ", "))
}
