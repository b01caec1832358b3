// Package store holds the persistence contracts used by the shop services and
// their Postgres and in-memory implementations.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/bodyshop/internal/models"
)

var (
	// ErrNotFound is returned when a lookup by id or key matches no row.
	ErrNotFound = errors.New("not found")
	// ErrUniqueViolation is returned when an insert or update collides with a
	// uniqueness constraint, such as a document number already taken for its kind.
	ErrUniqueViolation = errors.New("unique violation")
	// ErrInvalidReference is returned when a row points at a parent that does
	// not exist, such as a document linked to an unknown quote request.
	ErrInvalidReference = errors.New("invalid reference")
)

type DocumentFilter struct {
	Kind   models.DocumentKind
	Status string
	Limit  int
	Offset int
}

// DocumentStore is the storage collaborator for invoices, quotes and their
// line items.
type DocumentStore interface {
	// LatestByKind returns the most recently created document of the kind,
	// or ErrNotFound.
	LatestByKind(ctx context.Context, kind models.DocumentKind) (*models.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
	// FindByOriginalAndKind returns the documents of the given kind that belong
	// to the conversion chain rooted at originalID, the root itself included.
	FindByOriginalAndKind(ctx context.Context, originalID uuid.UUID, kind models.DocumentKind) ([]models.Document, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]models.Document, error)
	// InsertDocument stores doc under a new id and fresh timestamps.
	InsertDocument(ctx context.Context, doc models.Document) (*models.Document, error)
	UpdateDocument(ctx context.Context, doc models.Document) (*models.Document, error)
	// DeleteDocument removes the document and its line items.
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	ListLineItems(ctx context.Context, documentID uuid.UUID) ([]models.LineItem, error)
	InsertLineItems(ctx context.Context, items []models.LineItem) error
	ReplaceLineItems(ctx context.Context, documentID uuid.UUID, items []models.LineItem) error
}

type QuoteRequestStore interface {
	InsertQuoteRequest(ctx context.Context, q models.QuoteRequest) (*models.QuoteRequest, error)
	ListQuoteRequests(ctx context.Context) ([]models.QuoteRequest, error)
	UpdateQuoteRequestStatus(ctx context.Context, id uuid.UUID, status string) (*models.QuoteRequest, error)
}

type GalleryStore interface {
	ListGalleryItems(ctx context.Context, activeOnly bool) ([]models.GalleryItem, error)
	GetGalleryItem(ctx context.Context, id uuid.UUID) (*models.GalleryItem, error)
	InsertGalleryItem(ctx context.Context, item models.GalleryItem) (*models.GalleryItem, error)
	UpdateGalleryItem(ctx context.Context, item models.GalleryItem) (*models.GalleryItem, error)
	DeleteGalleryItem(ctx context.Context, id uuid.UUID) error
}

type AdminStore interface {
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
}

type AuditFilter struct {
	Action     string
	ResourceID *uuid.UUID
	Limit      int
	Offset     int
}

type AuditStore interface {
	InsertAuditLog(ctx context.Context, entry models.AuditLog) error
	ListAuditLogs(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error)
}

// Store is everything the API server needs from persistence.
type Store interface {
	DocumentStore
	QuoteRequestStore
	GalleryStore
	AdminStore
	AuditStore
	Ping(ctx context.Context) error
}
