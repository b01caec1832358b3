package models

import (
	"time"

	"github.com/google/uuid"
)

// QuoteRequest is a repair-quote request submitted by a customer through the
// public site. Staff turn it into a quote document by hand.
type QuoteRequest struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Phone             string    `json:"phone" db:"phone"`
	CarModel          string    `json:"car_model" db:"car_model"`
	DamageDescription string    `json:"damage_description" db:"damage_description"`
	Images            []string  `json:"images" db:"images"`
	Status            string    `json:"status" db:"status"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

const (
	QuoteStatusPending   = "pending"
	QuoteStatusReviewed  = "reviewed"
	QuoteStatusCompleted = "completed"
	QuoteStatusRejected  = "rejected"
)

func ValidQuoteStatus(s string) bool {
	switch s {
	case QuoteStatusPending, QuoteStatusReviewed, QuoteStatusCompleted, QuoteStatusRejected:
		return true
	}
	return false
}
