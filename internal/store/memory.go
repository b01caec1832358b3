package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/bodyshop/internal/models"
)

// Memory is an in-process Store. It enforces the same uniqueness rules as the
// Postgres schema: one document number per kind, and one document per
// (original_document_id, kind). The API falls back to it when no database is
// configured.
type Memory struct {
	mu sync.Mutex

	seq       int64
	docSeq    map[uuid.UUID]int64
	documents map[uuid.UUID]models.Document
	lineItems map[uuid.UUID][]models.LineItem

	quoteRequests map[uuid.UUID]models.QuoteRequest
	gallery       map[uuid.UUID]models.GalleryItem
	admins        map[string]models.Admin
	auditLogs     []models.AuditLog

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		docSeq:        make(map[uuid.UUID]int64),
		documents:     make(map[uuid.UUID]models.Document),
		lineItems:     make(map[uuid.UUID][]models.LineItem),
		quoteRequests: make(map[uuid.UUID]models.QuoteRequest),
		gallery:       make(map[uuid.UUID]models.GalleryItem),
		admins:        make(map[string]models.Admin),
		now:           time.Now,
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

// AddAdmin registers an admin account. Emails are matched case-insensitively.
func (m *Memory) AddAdmin(a models.Admin) models.Admin {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = m.now()
	}
	m.admins[strings.ToLower(a.Email)] = a
	return a
}

// Documents

// sortedDocuments returns documents newest first. Callers hold m.mu.
func (m *Memory) sortedDocuments() []models.Document {
	docs := make([]models.Document, 0, len(m.documents))
	for _, d := range m.documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return m.docSeq[docs[i].ID] > m.docSeq[docs[j].ID]
	})
	return docs
}

func (m *Memory) LatestByKind(_ context.Context, kind models.DocumentKind) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.sortedDocuments() {
		if d.Kind == kind {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("latest %s: %w", kind, ErrNotFound)
}

func (m *Memory) GetDocument(_ context.Context, id uuid.UUID) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return nil, fmt.Errorf("get document: %w", ErrNotFound)
	}
	return &d, nil
}

func (m *Memory) FindByOriginalAndKind(_ context.Context, originalID uuid.UUID, kind models.DocumentKind) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Document
	docs := m.sortedDocuments()
	for i := len(docs) - 1; i >= 0; i-- {
		d := docs[i]
		if d.Kind != kind {
			continue
		}
		if d.ID == originalID || (d.OriginalDocumentID != nil && *d.OriginalDocumentID == originalID) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Memory) ListDocuments(_ context.Context, f DocumentFilter) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Document
	for _, d := range m.sortedDocuments() {
		if f.Kind != "" && d.Kind != f.Kind {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		out = append(out, d)
	}
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// checkDocumentRefs mirrors the quote_request_id foreign key. Callers hold m.mu.
func (m *Memory) checkDocumentRefs(d models.Document) error {
	if d.QuoteRequestID == nil {
		return nil
	}
	if _, ok := m.quoteRequests[*d.QuoteRequestID]; !ok {
		return fmt.Errorf("%w: documents_quote_request_id_fkey", ErrInvalidReference)
	}
	return nil
}

// checkDocumentUnique reports a conflict with any document other than d itself.
// Callers hold m.mu.
func (m *Memory) checkDocumentUnique(d models.Document) error {
	for _, other := range m.documents {
		if other.ID == d.ID {
			continue
		}
		if other.Kind == d.Kind && other.DocumentNumber == d.DocumentNumber {
			return fmt.Errorf("%w: documents_kind_number_key", ErrUniqueViolation)
		}
		if d.OriginalDocumentID != nil && other.OriginalDocumentID != nil &&
			*other.OriginalDocumentID == *d.OriginalDocumentID && other.Kind == d.Kind {
			return fmt.Errorf("%w: documents_original_kind_key", ErrUniqueViolation)
		}
	}
	return nil
}

func (m *Memory) InsertDocument(_ context.Context, d models.Document) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d.ID = uuid.New()
	if err := m.checkDocumentRefs(d); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	if err := m.checkDocumentUnique(d); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	now := m.now()
	d.CreatedAt = now
	d.UpdatedAt = now
	d.LineItems = nil

	m.seq++
	m.docSeq[d.ID] = m.seq
	m.documents[d.ID] = d
	return &d, nil
}

func (m *Memory) UpdateDocument(_ context.Context, d models.Document) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.documents[d.ID]
	if !ok {
		return nil, fmt.Errorf("update document: %w", ErrNotFound)
	}
	if err := m.checkDocumentRefs(d); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	cur.Status = d.Status
	cur.CustomerName = d.CustomerName
	cur.CustomerPhone = d.CustomerPhone
	cur.CarModel = d.CarModel
	cur.VehicleRegNumber = d.VehicleRegNumber
	cur.RepairDescription = d.RepairDescription
	cur.TotalAmount = d.TotalAmount
	cur.DocumentDate = d.DocumentDate
	cur.DueDate = d.DueDate
	cur.Notes = d.Notes
	cur.QuoteRequestID = d.QuoteRequestID
	cur.UpdatedAt = m.now()

	m.documents[cur.ID] = cur
	return &cur, nil
}

func (m *Memory) DeleteDocument(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return fmt.Errorf("delete document: %w", ErrNotFound)
	}
	delete(m.documents, id)
	delete(m.docSeq, id)
	delete(m.lineItems, id)

	// Mirrors ON DELETE SET NULL on the chain references.
	for oid, d := range m.documents {
		changed := false
		if d.OriginalDocumentID != nil && *d.OriginalDocumentID == id {
			d.OriginalDocumentID = nil
			changed = true
		}
		if d.ConvertedFromID != nil && *d.ConvertedFromID == id {
			d.ConvertedFromID = nil
			changed = true
		}
		if changed {
			m.documents[oid] = d
		}
	}
	return nil
}

// Line items

func (m *Memory) ListLineItems(_ context.Context, documentID uuid.UUID) ([]models.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.lineItems[documentID]
	out := make([]models.LineItem, len(items))
	copy(out, items)
	return out, nil
}

// addLineItems validates and stores items. Callers hold m.mu.
func (m *Memory) addLineItems(items []models.LineItem) error {
	for _, it := range items {
		if _, ok := m.documents[it.DocumentID]; !ok {
			return fmt.Errorf("insert line item: document %s: %w", it.DocumentID, ErrNotFound)
		}
	}
	now := m.now()
	for _, it := range items {
		it.ID = uuid.New()
		it.CreatedAt = now
		m.lineItems[it.DocumentID] = append(m.lineItems[it.DocumentID], it)
	}
	return nil
}

func (m *Memory) InsertLineItems(_ context.Context, items []models.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLineItems(items)
}

func (m *Memory) ReplaceLineItems(_ context.Context, documentID uuid.UUID, items []models.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[documentID]; !ok {
		return fmt.Errorf("replace line items: %w", ErrNotFound)
	}
	for i := range items {
		items[i].DocumentID = documentID
	}
	delete(m.lineItems, documentID)
	return m.addLineItems(items)
}

// Quote requests

func (m *Memory) InsertQuoteRequest(_ context.Context, q models.QuoteRequest) (*models.QuoteRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = uuid.New()
	q.CreatedAt = m.now()
	q.UpdatedAt = q.CreatedAt
	if q.Images == nil {
		q.Images = []string{}
	}
	m.quoteRequests[q.ID] = q
	return &q, nil
}

func (m *Memory) ListQuoteRequests(context.Context) ([]models.QuoteRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.QuoteRequest, 0, len(m.quoteRequests))
	for _, q := range m.quoteRequests {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateQuoteRequestStatus(_ context.Context, id uuid.UUID, status string) (*models.QuoteRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quoteRequests[id]
	if !ok {
		return nil, fmt.Errorf("update quote request: %w", ErrNotFound)
	}
	q.Status = status
	q.UpdatedAt = m.now()
	m.quoteRequests[id] = q
	return &q, nil
}

// Gallery

func (m *Memory) ListGalleryItems(_ context.Context, activeOnly bool) ([]models.GalleryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GalleryItem
	for _, g := range m.gallery {
		if activeOnly && !g.IsActive {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) GetGalleryItem(_ context.Context, id uuid.UUID) (*models.GalleryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.gallery[id]
	if !ok {
		return nil, fmt.Errorf("get gallery item: %w", ErrNotFound)
	}
	return &g, nil
}

func (m *Memory) InsertGalleryItem(_ context.Context, g models.GalleryItem) (*models.GalleryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.ID = uuid.New()
	g.CreatedAt = m.now()
	g.UpdatedAt = g.CreatedAt
	m.gallery[g.ID] = g
	return &g, nil
}

func (m *Memory) UpdateGalleryItem(_ context.Context, g models.GalleryItem) (*models.GalleryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.gallery[g.ID]
	if !ok {
		return nil, fmt.Errorf("update gallery item: %w", ErrNotFound)
	}
	g.CreatedAt = cur.CreatedAt
	g.UpdatedAt = m.now()
	m.gallery[g.ID] = g
	return &g, nil
}

func (m *Memory) DeleteGalleryItem(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.gallery[id]; !ok {
		return fmt.Errorf("delete gallery item: %w", ErrNotFound)
	}
	delete(m.gallery, id)
	return nil
}

// Admins

func (m *Memory) GetAdminByEmail(_ context.Context, email string) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("get admin: %w", ErrNotFound)
	}
	return &a, nil
}

// Audit

func (m *Memory) InsertAuditLog(_ context.Context, e models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = m.now()
	if e.Details == nil {
		e.Details = []byte("{}")
	}
	m.auditLogs = append(m.auditLogs, e)
	return nil
}

func (m *Memory) ListAuditLogs(_ context.Context, f AuditFilter) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.Limit <= 0 {
		f.Limit = 50
	}
	var out []models.AuditLog
	for i := len(m.auditLogs) - 1; i >= 0; i-- {
		l := m.auditLogs[i]
		if f.Action != "" && l.Action != f.Action {
			continue
		}
		if f.ResourceID != nil && (l.ResourceID == nil || *l.ResourceID != *f.ResourceID) {
			continue
		}
		out = append(out, l)
	}
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
