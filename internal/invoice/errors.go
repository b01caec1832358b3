package invoice

import "errors"

var (
	// ErrInvalidKind is returned for a document type other than invoice or quote.
	ErrInvalidKind = errors.New("invalid document type")
	// ErrInvalidInput is returned for malformed create or update fields.
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("document not found")
	// ErrStorage wraps unexpected failures of the document store.
	ErrStorage = errors.New("storage failure")
	// ErrConflictExhausted is returned when every numbering attempt collided
	// with a document number taken by someone else.
	ErrConflictExhausted = errors.New("document number conflicts exhausted retries")
)
