package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentKind tells whether a document is currently an invoice or a quote.
type DocumentKind string

const (
	KindInvoice DocumentKind = "invoice"
	KindQuote   DocumentKind = "quote"
)

// Valid reports whether k is one of the known kinds.
func (k DocumentKind) Valid() bool {
	return k == KindInvoice || k == KindQuote
}

// NumberPrefix returns the prefix used in document numbers of this kind.
func (k DocumentKind) NumberPrefix() string {
	if k == KindQuote {
		return "QUO"
	}
	return "INV"
}

type Document struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	DocumentNumber     string          `json:"document_number" db:"document_number"`
	Kind               DocumentKind    `json:"type" db:"kind"`
	Status             string          `json:"status" db:"status"`
	OriginalDocumentID *uuid.UUID      `json:"original_document_id,omitempty" db:"original_document_id"`
	ConvertedFromID    *uuid.UUID      `json:"converted_from_id,omitempty" db:"converted_from_id"`
	QuoteRequestID     *uuid.UUID      `json:"quote_id,omitempty" db:"quote_request_id"`
	CustomerName       string          `json:"customer_name" db:"customer_name"`
	CustomerPhone      string          `json:"customer_phone" db:"customer_phone"`
	CarModel           string          `json:"car_model" db:"car_model"`
	VehicleRegNumber   string          `json:"vehicle_reg_number" db:"vehicle_reg_number"`
	RepairDescription  string          `json:"description" db:"repair_description"`
	TotalAmount        decimal.Decimal `json:"total_amount" db:"total_amount"`
	DocumentDate       time.Time       `json:"invoice_date" db:"document_date"`
	DueDate            *time.Time      `json:"due_date,omitempty" db:"due_date"`
	Notes              string          `json:"notes,omitempty" db:"notes"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`

	LineItems []LineItem `json:"lineItems,omitempty" db:"-"`
}

// ChainRootID returns the id of the first document in this document's
// conversion chain.
func (d *Document) ChainRootID() uuid.UUID {
	if d.OriginalDocumentID != nil {
		return *d.OriginalDocumentID
	}
	return d.ID
}

// IsChainRoot reports whether the document was never produced by a conversion.
func (d *Document) IsChainRoot() bool {
	return d.OriginalDocumentID == nil
}

type LineItem struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	DocumentID  uuid.UUID       `json:"document_id" db:"document_id"`
	RepairType  string          `json:"repair_type" db:"repair_type"`
	Description string          `json:"description" db:"description"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

const (
	DocStatusDraft     = "draft"
	DocStatusPending   = "pending"
	DocStatusSent      = "sent"
	DocStatusPaid      = "paid"
	DocStatusCompleted = "completed"
	DocStatusCancelled = "cancelled"
)

// ValidDocumentStatus reports whether s is a status staff may set on a document.
func ValidDocumentStatus(s string) bool {
	switch s {
	case DocStatusDraft, DocStatusPending, DocStatusSent, DocStatusPaid, DocStatusCompleted, DocStatusCancelled:
		return true
	}
	return false
}
