// Package quoterequest handles repair-quote requests sent in from the public
// site and their review by staff.
package quoterequest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/bodyshop/internal/models"
	"github.com/nikhilbhutani/bodyshop/internal/store"
)

const EventSubmitted = "quote_request.submitted"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("quote request not found")
)

type Publisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

type Recorder interface {
	Record(ctx context.Context, action, resourceType string, resourceID uuid.UUID, details map[string]any) error
}

type Service struct {
	store     store.QuoteRequestStore
	publisher Publisher
	recorder  Recorder
}

// NewService builds the service; publisher and recorder may be nil.
func NewService(st store.QuoteRequestStore, publisher Publisher, recorder Recorder) *Service {
	return &Service{store: st, publisher: publisher, recorder: recorder}
}

type SubmitRequest struct {
	Name              string   `json:"name"`
	Phone             string   `json:"phone"`
	CarModel          string   `json:"carModel"`
	DamageDescription string   `json:"description"`
	Images            []string `json:"images"`
}

func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.QuoteRequest, error) {
	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	if name == "" || phone == "" {
		return nil, fmt.Errorf("%w: name and phone are required", ErrInvalidInput)
	}

	q, err := s.store.InsertQuoteRequest(ctx, models.QuoteRequest{
		Name:              name,
		Phone:             phone,
		CarModel:          strings.TrimSpace(req.CarModel),
		DamageDescription: strings.TrimSpace(req.DamageDescription),
		Images:            req.Images,
		Status:            models.QuoteStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("insert quote request: %w", err)
	}
	slog.InfoContext(ctx, "quote request submitted", "quote_request_id", q.ID)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, EventSubmitted, q); err != nil {
			slog.WarnContext(ctx, "failed to publish event", "event", EventSubmitted, "error", err)
		}
	}
	return q, nil
}

// List returns all requests, newest first.
func (s *Service) List(ctx context.Context) ([]models.QuoteRequest, error) {
	qs, err := s.store.ListQuoteRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quote requests: %w", err)
	}
	return qs, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.QuoteRequest, error) {
	if !models.ValidQuoteStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	q, err := s.store.UpdateQuoteRequestStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update quote request status: %w", err)
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, "quote_request.status_updated", "quote_request", id, map[string]any{"status": status}); err != nil {
			slog.WarnContext(ctx, "failed to record activity", "error", err)
		}
	}
	return q, nil
}
