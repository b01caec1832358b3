package invoice

import (
	"context"
	"errors"
	"testing"

	"github.com/nikhilbhutani/bodyshop/internal/models"
)

func TestAllocateSeedOnEmptyStore(t *testing.T) {
	alloc := NewAllocator(newFaultyStore())
	ctx := context.Background()

	if got := alloc.Allocate(ctx, models.KindInvoice); got != "INV-001" {
		t.Errorf("invoice seed = %q, want INV-001", got)
	}
	if got := alloc.Allocate(ctx, models.KindQuote); got != "QUO-001" {
		t.Errorf("quote seed = %q, want QUO-001", got)
	}
}

func TestAllocateIncrementsLatest(t *testing.T) {
	tests := []struct {
		name  string
		kind  models.DocumentKind
		prior []string
		want  string
	}{
		{"single invoice", models.KindInvoice, []string{"INV-001"}, "INV-002"},
		{"several invoices", models.KindInvoice, []string{"INV-001", "INV-002", "INV-007"}, "INV-008"},
		{"quote", models.KindQuote, []string{"QUO-041"}, "QUO-042"},
		{"width grows", models.KindInvoice, []string{"INV-999"}, "INV-1000"},
		{"past a thousand", models.KindQuote, []string{"QUO-1000"}, "QUO-1001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFaultyStore()
			for _, n := range tt.prior {
				seedDocument(t, st, tt.kind, n)
			}
			if got := NewAllocator(st).Allocate(context.Background(), tt.kind); got != tt.want {
				t.Errorf("Allocate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAllocateIgnoresOtherKind(t *testing.T) {
	st := newFaultyStore()
	seedDocument(t, st, models.KindInvoice, "INV-005")

	if got := NewAllocator(st).Allocate(context.Background(), models.KindQuote); got != "QUO-001" {
		t.Errorf("Allocate(quote) = %q, want QUO-001", got)
	}
}

func TestAllocateMalformedNumberFallsBackToSeed(t *testing.T) {
	for _, number := range []string{"INV-abc", "legacy", "INV-12x", ""} {
		st := newFaultyStore()
		seedDocument(t, st, models.KindInvoice, number)
		if got := NewAllocator(st).Allocate(context.Background(), models.KindInvoice); got != "INV-001" {
			t.Errorf("latest %q: Allocate() = %q, want INV-001", number, got)
		}
	}
}

func TestAllocateLookupErrorFallsBackToSeed(t *testing.T) {
	st := newFaultyStore()
	st.latestByKindFn = func(context.Context, models.DocumentKind) (*models.Document, error) {
		return nil, errors.New("connection reset")
	}

	if got := NewAllocator(st).Allocate(context.Background(), models.KindQuote); got != "QUO-001" {
		t.Errorf("Allocate() = %q, want QUO-001", got)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"INV-001", 1, true},
		{"QUO-042", 42, true},
		{"INV-1000", 1000, true},
		{"INV-abc", 0, false},
		{"INV-", 0, false},
		{"001", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseNumber(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
