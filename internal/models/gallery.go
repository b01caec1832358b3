package models

import (
	"time"

	"github.com/google/uuid"
)

type GalleryItem struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Description    string    `json:"description" db:"description"`
	BeforeImageURL string    `json:"before_image_url" db:"before_image_url"`
	AfterImageURL  string    `json:"after_image_url" db:"after_image_url"`
	DisplayOrder   int       `json:"display_order" db:"display_order"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
