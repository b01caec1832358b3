package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nikhilbhutani/bodyshop/internal/models"
	"github.com/nikhilbhutani/bodyshop/internal/store"
)

const dateLayout = "2006-01-02"

const EventDocumentConverted = "document.converted"

// Recorder keeps an activity trail of staff actions.
type Recorder interface {
	Record(ctx context.Context, action, resourceType string, resourceID uuid.UUID, details map[string]any) error
}

// Publisher announces domain events to outside listeners.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

type Service struct {
	docs        store.DocumentStore
	alloc       *Allocator
	conv        *Converter
	recorder    Recorder
	publisher   Publisher
	maxAttempts int
	now         func() time.Time
}

// NewService wires the document service. recorder and publisher may be nil.
func NewService(docs store.DocumentStore, maxAttempts int, recorder Recorder, publisher Publisher) *Service {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	alloc := NewAllocator(docs)
	return &Service{
		docs:        docs,
		alloc:       alloc,
		conv:        NewConverter(docs, alloc, maxAttempts),
		recorder:    recorder,
		publisher:   publisher,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

type LineItemInput struct {
	RepairType  string `json:"repair_type"`
	Description string `json:"description"`
	Amount      Amount `json:"amount"`
}

type CreateRequest struct {
	Kind             models.DocumentKind `json:"type"`
	QuoteRequestID   *uuid.UUID          `json:"quote_id"`
	CustomerName     string              `json:"customer_name"`
	CustomerPhone    string              `json:"customer_phone"`
	CarModel         string              `json:"car_model"`
	VehicleRegNumber string              `json:"vehicle_reg_number"`
	RepairType       string              `json:"repair_type"`
	Description      string              `json:"description"`
	DocumentDate     string              `json:"invoice_date"`
	DueDate          string              `json:"due_date"`
	TotalAmount      *Amount             `json:"total_amount"`
	Notes            string              `json:"notes"`
	LineItems        []LineItemInput     `json:"lineItems"`
}

// Create stores a new document under the next number of its kind.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Document, error) {
	kind := req.Kind
	if kind == "" {
		kind = models.KindInvoice
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer_name is required", ErrInvalidInput)
	}

	docDate := s.today()
	if req.DocumentDate != "" {
		d, err := time.Parse(dateLayout, req.DocumentDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invoice_date must be YYYY-MM-DD", ErrInvalidInput)
		}
		docDate = d
	}
	var due *time.Time
	if req.DueDate != "" {
		d, err := time.Parse(dateLayout, req.DueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: due_date must be YYYY-MM-DD", ErrInvalidInput)
		}
		due = &d
	}

	inputs := req.LineItems
	if len(inputs) == 0 && req.RepairType != "" {
		// Single-line form: the repair on the document header becomes its only item.
		single := LineItemInput{RepairType: req.RepairType, Description: req.Description}
		if req.TotalAmount != nil {
			single.Amount = *req.TotalAmount
		}
		inputs = []LineItemInput{single}
	}

	doc := models.Document{
		Kind:              kind,
		Status:            models.DocStatusDraft,
		QuoteRequestID:    req.QuoteRequestID,
		CustomerName:      req.CustomerName,
		CustomerPhone:     req.CustomerPhone,
		CarModel:          req.CarModel,
		VehicleRegNumber:  req.VehicleRegNumber,
		RepairDescription: req.Description,
		TotalAmount:       totalOf(req.TotalAmount, inputs),
		DocumentDate:      docDate,
		DueDate:           due,
		Notes:             req.Notes,
	}

	var created *models.Document
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		doc.DocumentNumber = s.alloc.Allocate(ctx, kind)
		created, err = s.docs.InsertDocument(ctx, doc)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrInvalidReference) {
			return nil, fmt.Errorf("%w: quote_id does not reference a quote request", ErrInvalidInput)
		}
		if !errors.Is(err, store.ErrUniqueViolation) {
			return nil, fmt.Errorf("%w: insert document: %w", ErrStorage, err)
		}
		slog.WarnContext(ctx, "document number conflict", "number", doc.DocumentNumber, "attempt", attempt)
		created = nil
	}
	if created == nil {
		return nil, fmt.Errorf("%w: %d attempts", ErrConflictExhausted, s.maxAttempts)
	}

	if items := toLineItems(inputs, created.ID); len(items) > 0 {
		if err := s.docs.InsertLineItems(ctx, items); err != nil {
			slog.ErrorContext(ctx, "failed to store line items", "document_id", created.ID, "error", err)
		}
	}

	s.record(ctx, "document.created", created.ID, map[string]any{"number": created.DocumentNumber, "type": kind})
	return s.withLineItems(ctx, created)
}

type ListFilter struct {
	Kind   models.DocumentKind
	Status string
	Limit  int
	Offset int
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Document, error) {
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, f.Kind)
	}
	docs, err := s.docs.ListDocuments(ctx, store.DocumentFilter{
		Kind:   f.Kind,
		Status: f.Status,
		Limit:  f.Limit,
		Offset: f.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return docs, nil
}

// Get returns the document with its line items.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return s.withLineItems(ctx, doc)
}

// UpdateRequest carries a partial update; nil fields are left alone. Kind and
// number only change through conversion.
type UpdateRequest struct {
	Status           *string          `json:"status"`
	QuoteRequestID   *uuid.UUID       `json:"quote_id"`
	CustomerName     *string          `json:"customer_name"`
	CustomerPhone    *string          `json:"customer_phone"`
	CarModel         *string          `json:"car_model"`
	VehicleRegNumber *string          `json:"vehicle_reg_number"`
	Description      *string          `json:"description"`
	DocumentDate     *string          `json:"invoice_date"`
	DueDate          *string          `json:"due_date"`
	TotalAmount      *Amount          `json:"total_amount"`
	Notes            *string          `json:"notes"`
	LineItems        *[]LineItemInput `json:"lineItems"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*models.Document, error) {
	doc, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if req.Status != nil {
		if !models.ValidDocumentStatus(*req.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *req.Status)
		}
		doc.Status = *req.Status
	}
	if req.QuoteRequestID != nil {
		doc.QuoteRequestID = req.QuoteRequestID
	}
	setString(&doc.CustomerName, req.CustomerName)
	setString(&doc.CustomerPhone, req.CustomerPhone)
	setString(&doc.CarModel, req.CarModel)
	setString(&doc.VehicleRegNumber, req.VehicleRegNumber)
	setString(&doc.RepairDescription, req.Description)
	setString(&doc.Notes, req.Notes)

	if req.DocumentDate != nil {
		d, err := time.Parse(dateLayout, *req.DocumentDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invoice_date must be YYYY-MM-DD", ErrInvalidInput)
		}
		doc.DocumentDate = d
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			doc.DueDate = nil
		} else {
			d, err := time.Parse(dateLayout, *req.DueDate)
			if err != nil {
				return nil, fmt.Errorf("%w: due_date must be YYYY-MM-DD", ErrInvalidInput)
			}
			doc.DueDate = &d
		}
	}

	var items []models.LineItem
	if req.LineItems != nil {
		items = toLineItems(*req.LineItems, doc.ID)
		doc.TotalAmount = totalOf(req.TotalAmount, *req.LineItems)
	} else if req.TotalAmount != nil {
		doc.TotalAmount = req.TotalAmount.Decimal
	}

	updated, err := s.docs.UpdateDocument(ctx, *doc)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		if errors.Is(err, store.ErrInvalidReference) {
			return nil, fmt.Errorf("%w: quote_id does not reference a quote request", ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if req.LineItems != nil {
		if err := s.docs.ReplaceLineItems(ctx, updated.ID, items); err != nil {
			return nil, fmt.Errorf("%w: replace line items: %w", ErrStorage, err)
		}
	}

	s.record(ctx, "document.updated", updated.ID, map[string]any{"number": updated.DocumentNumber})
	return s.withLineItems(ctx, updated)
}

// Delete removes the document and its line items. Other members of its
// conversion chain are kept.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.docs.DeleteDocument(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	s.record(ctx, "document.deleted", id, nil)
	return nil
}

// Convert turns the document into the target kind, see Converter.
func (s *Service) Convert(ctx context.Context, id uuid.UUID, target models.DocumentKind) (*ConvertResult, error) {
	res, err := s.conv.Convert(ctx, id, target)
	if err != nil {
		return nil, err
	}
	if res.Created {
		details := map[string]any{
			"from_id":  id,
			"number":   res.Document.DocumentNumber,
			"type":     target,
			"warnings": res.Warnings,
		}
		s.record(ctx, EventDocumentConverted, res.Document.ID, details)
		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, EventDocumentConverted, res.Document); err != nil {
				slog.WarnContext(ctx, "failed to publish event", "event", EventDocumentConverted, "error", err)
			}
		}
	}
	return res, nil
}

func (s *Service) withLineItems(ctx context.Context, doc *models.Document) (*models.Document, error) {
	items, err := s.docs.ListLineItems(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list line items: %w", ErrStorage, err)
	}
	doc.LineItems = items
	return doc, nil
}

func (s *Service) record(ctx context.Context, action string, id uuid.UUID, details map[string]any) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, action, "document", id, details); err != nil {
		slog.WarnContext(ctx, "failed to record activity", "action", action, "error", err)
	}
}

func (s *Service) today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func toLineItems(inputs []LineItemInput, documentID uuid.UUID) []models.LineItem {
	items := make([]models.LineItem, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, models.LineItem{
			DocumentID:  documentID,
			RepairType:  in.RepairType,
			Description: in.Description,
			Amount:      in.Amount.Decimal,
		})
	}
	return items
}

// totalOf returns the explicit total when given, else the sum of the items.
func totalOf(explicit *Amount, items []LineItemInput) decimal.Decimal {
	if explicit != nil {
		return explicit.Decimal
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount.Decimal)
	}
	return total
}
