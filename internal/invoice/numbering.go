package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/nikhilbhutani/bodyshop/internal/models"
	"github.com/nikhilbhutani/bodyshop/internal/store"
)

// DefaultMaxAttempts bounds how many numbers are tried before an insert gives
// up on conflicts.
const DefaultMaxAttempts = 3

var numberSuffix = regexp.MustCompile(`-(\d+)$`)

// LatestFinder is the one query the allocator needs.
type LatestFinder interface {
	LatestByKind(ctx context.Context, kind models.DocumentKind) (*models.Document, error)
}

// Allocator derives the next document number of a kind from the most
// recently created document of that kind. It does not reserve anything:
// two callers racing on the same latest row get the same number, and the
// loser finds out from the unique constraint on insert.
type Allocator struct {
	docs LatestFinder
}

func NewAllocator(docs LatestFinder) *Allocator {
	return &Allocator{docs: docs}
}

// FormatNumber renders n with the kind's prefix, zero padded to three digits.
func FormatNumber(kind models.DocumentKind, n int) string {
	return fmt.Sprintf("%s-%03d", kind.NumberPrefix(), n)
}

// SeedNumber is the number given to the first document of a kind.
func SeedNumber(kind models.DocumentKind) string {
	return FormatNumber(kind, 1)
}

// ParseNumber extracts the numeric suffix of a document number.
func ParseNumber(number string) (int, bool) {
	m := numberSuffix.FindStringSubmatch(number)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Allocate returns the next number for kind. Lookup failures and unparsable
// stored numbers fall back to the seed number.
func (a *Allocator) Allocate(ctx context.Context, kind models.DocumentKind) string {
	latest, err := a.docs.LatestByKind(ctx, kind)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("latest document lookup failed, using seed number", "kind", kind, "error", err)
		}
		return SeedNumber(kind)
	}

	n, ok := ParseNumber(latest.DocumentNumber)
	if !ok {
		slog.Warn("unparsable document number, using seed number", "kind", kind, "number", latest.DocumentNumber)
		return SeedNumber(kind)
	}
	return FormatNumber(kind, n+1)
}
