package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/bodyshop/internal/models"
	"github.com/nikhilbhutani/bodyshop/internal/store"
)

const (
	WarnLineItemsUnavailable = "source line items could not be read; converted document has no line items"
	WarnLineItemsNotCopied   = "line items not copied to converted document"
	WarnRefetchFailed        = "converted document could not be re-read; returning insert result"
)

// ConvertResult is the outcome of a conversion. Warnings lists the
// non-fatal problems hit on the way; the document stands regardless.
type ConvertResult struct {
	Document *models.Document
	// Created is false when an existing document was returned: the document
	// itself, or a counterpart already present in its conversion chain.
	Created  bool
	Warnings []string
}

func (r *ConvertResult) warn(ctx context.Context, msg string, args ...any) {
	r.Warnings = append(r.Warnings, msg)
	slog.WarnContext(ctx, msg, args...)
}

// Converter changes a document between invoice and quote. A conversion never
// modifies the source document; it creates a counterpart in the same chain,
// or returns the counterpart that already exists.
type Converter struct {
	docs        store.DocumentStore
	alloc       *Allocator
	maxAttempts int
}

func NewConverter(docs store.DocumentStore, alloc *Allocator, maxAttempts int) *Converter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Converter{docs: docs, alloc: alloc, maxAttempts: maxAttempts}
}

func (c *Converter) Convert(ctx context.Context, id uuid.UUID, target models.DocumentKind) (*ConvertResult, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, target)
	}

	current, err := c.docs.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: fetch document: %w", ErrStorage, err)
	}

	res := &ConvertResult{}

	if current.IsChainRoot() && current.Kind == target {
		res.Document = current
		c.attachLineItems(ctx, res)
		return res, nil
	}

	rootID := current.ChainRootID()
	existing, err := c.findCounterpart(ctx, rootID, target)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		res.Document = existing
		c.attachLineItems(ctx, res)
		return res, nil
	}

	items, err := c.docs.ListLineItems(ctx, current.ID)
	if err != nil {
		res.warn(ctx, WarnLineItemsUnavailable, "document_id", current.ID, "error", err)
		items = nil
	}

	var created *models.Document
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		number := c.alloc.Allocate(ctx, target)
		created, err = c.docs.InsertDocument(ctx, convertedCopy(current, target, number, rootID))
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrUniqueViolation) {
			return nil, fmt.Errorf("%w: insert converted document: %w", ErrStorage, err)
		}
		slog.WarnContext(ctx, "document number conflict",
			"document_id", current.ID, "number", number, "attempt", attempt, "error", err)
		created = nil

		// The conflict may come from a concurrent conversion of the same chain.
		existing, lookupErr := c.findCounterpart(ctx, rootID, target)
		if lookupErr != nil {
			slog.WarnContext(ctx, "counterpart lookup after conflict failed", "error", lookupErr)
			continue
		}
		if existing != nil {
			res.Document = existing
			c.attachLineItems(ctx, res)
			return res, nil
		}
	}
	if created == nil {
		return nil, fmt.Errorf("%w: %d attempts", ErrConflictExhausted, c.maxAttempts)
	}
	res.Created = true

	copies := copyLineItems(items, created.ID)
	if len(copies) > 0 {
		if err := c.docs.InsertLineItems(ctx, copies); err != nil {
			res.warn(ctx, WarnLineItemsNotCopied, "document_id", created.ID, "items", len(copies), "error", err)
			copies = nil
		}
	}

	fresh, err := c.docs.GetDocument(ctx, created.ID)
	if err != nil {
		res.warn(ctx, WarnRefetchFailed, "document_id", created.ID, "error", err)
		created.LineItems = copies
		res.Document = created
		return res, nil
	}
	res.Document = fresh
	c.attachLineItems(ctx, res)

	slog.InfoContext(ctx, "document converted",
		"from_id", current.ID, "to_id", fresh.ID, "kind", target, "number", fresh.DocumentNumber)
	return res, nil
}

// findCounterpart returns the chain member of kind target, or nil when the
// chain has none.
func (c *Converter) findCounterpart(ctx context.Context, rootID uuid.UUID, target models.DocumentKind) (*models.Document, error) {
	docs, err := c.docs.FindByOriginalAndKind(ctx, rootID, target)
	if err != nil {
		return nil, fmt.Errorf("%w: find chain counterpart: %w", ErrStorage, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}

func (c *Converter) attachLineItems(ctx context.Context, res *ConvertResult) {
	items, err := c.docs.ListLineItems(ctx, res.Document.ID)
	if err != nil {
		slog.WarnContext(ctx, "line items unavailable", "document_id", res.Document.ID, "error", err)
		return
	}
	res.Document.LineItems = items
}

func convertedCopy(src *models.Document, target models.DocumentKind, number string, rootID uuid.UUID) models.Document {
	doc := *src
	fromID := src.ID

	doc.ID = uuid.Nil
	doc.DocumentNumber = number
	doc.Kind = target
	doc.Status = models.DocStatusDraft
	doc.OriginalDocumentID = &rootID
	doc.ConvertedFromID = &fromID
	doc.CreatedAt = time.Time{}
	doc.UpdatedAt = time.Time{}
	doc.LineItems = nil
	return doc
}

func copyLineItems(items []models.LineItem, documentID uuid.UUID) []models.LineItem {
	out := make([]models.LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, models.LineItem{
			DocumentID:  documentID,
			RepairType:  it.RepairType,
			Description: it.Description,
			Amount:      it.Amount,
		})
	}
	return out
}
