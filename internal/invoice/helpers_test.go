package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nikhilbhutani/bodyshop/internal/models"
	"github.com/nikhilbhutani/bodyshop/internal/store"
)

// faultyStore wraps the in-memory store and lets a test replace single calls.
type faultyStore struct {
	*store.Memory
	latestByKindFn    func(context.Context, models.DocumentKind) (*models.Document, error)
	getDocumentFn     func(context.Context, uuid.UUID) (*models.Document, error)
	insertDocumentFn  func(context.Context, models.Document) (*models.Document, error)
	listLineItemsFn   func(context.Context, uuid.UUID) ([]models.LineItem, error)
	insertLineItemsFn func(context.Context, []models.LineItem) error
}

func newFaultyStore() *faultyStore {
	return &faultyStore{Memory: store.NewMemory()}
}

func (f *faultyStore) LatestByKind(ctx context.Context, kind models.DocumentKind) (*models.Document, error) {
	if f.latestByKindFn != nil {
		return f.latestByKindFn(ctx, kind)
	}
	return f.Memory.LatestByKind(ctx, kind)
}

func (f *faultyStore) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	if f.getDocumentFn != nil {
		return f.getDocumentFn(ctx, id)
	}
	return f.Memory.GetDocument(ctx, id)
}

func (f *faultyStore) InsertDocument(ctx context.Context, doc models.Document) (*models.Document, error) {
	if f.insertDocumentFn != nil {
		return f.insertDocumentFn(ctx, doc)
	}
	return f.Memory.InsertDocument(ctx, doc)
}

func (f *faultyStore) ListLineItems(ctx context.Context, id uuid.UUID) ([]models.LineItem, error) {
	if f.listLineItemsFn != nil {
		return f.listLineItemsFn(ctx, id)
	}
	return f.Memory.ListLineItems(ctx, id)
}

func (f *faultyStore) InsertLineItems(ctx context.Context, items []models.LineItem) error {
	if f.insertLineItemsFn != nil {
		return f.insertLineItemsFn(ctx, items)
	}
	return f.Memory.InsertLineItems(ctx, items)
}

func seedDocument(t *testing.T, st store.DocumentStore, kind models.DocumentKind, number string) *models.Document {
	t.Helper()
	doc, err := st.InsertDocument(context.Background(), models.Document{
		DocumentNumber:    number,
		Kind:              kind,
		Status:            models.DocStatusPending,
		CustomerName:      "Jane Doe",
		CustomerPhone:     "555-0101",
		CarModel:          "Toyota Corolla",
		VehicleRegNumber:  "KA-01-1234",
		RepairDescription: "Rear bumper respray",
		TotalAmount:       decimal.RequireFromString("450.00"),
		DocumentDate:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed document %s: %v", number, err)
	}
	return doc
}

func seedLineItems(t *testing.T, st store.DocumentStore, docID uuid.UUID, amounts ...string) {
	t.Helper()
	var items []models.LineItem
	for i, a := range amounts {
		items = append(items, models.LineItem{
			DocumentID:  docID,
			RepairType:  []string{"paint", "panel", "glass"}[i%3],
			Description: "item",
			Amount:      decimal.RequireFromString(a),
		})
	}
	if err := st.InsertLineItems(context.Background(), items); err != nil {
		t.Fatalf("seed line items: %v", err)
	}
}

func countDocuments(t *testing.T, st store.DocumentStore, kind models.DocumentKind) int {
	t.Helper()
	docs, err := st.ListDocuments(context.Background(), store.DocumentFilter{Kind: kind})
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	return len(docs)
}
