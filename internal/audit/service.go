package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/bodyshop/internal/auth"
	"github.com/nikhilbhutani/bodyshop/internal/models"
	"github.com/nikhilbhutani/bodyshop/internal/store"
)

type Service struct {
	store store.AuditStore
}

func NewService(st store.AuditStore) *Service {
	return &Service{store: st}
}

// Record stores an activity entry attributed to the admin in ctx, if any.
func (s *Service) Record(ctx context.Context, action, resourceType string, resourceID uuid.UUID, details map[string]any) error {
	entry := models.AuditLog{
		Action:       action,
		ResourceType: resourceType,
	}
	if adminID, ok := auth.AdminIDFromContext(ctx); ok {
		entry.AdminID = &adminID
	}
	if resourceID != uuid.Nil {
		entry.ResourceID = &resourceID
	}

	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	entry.Details = raw

	if err := s.store.InsertAuditLog(ctx, entry); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

type Query struct {
	Action     string
	ResourceID *uuid.UUID
	Limit      int
	Offset     int
}

func (s *Service) List(ctx context.Context, q Query) ([]models.AuditLog, error) {
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 50
	}
	logs, err := s.store.ListAuditLogs(ctx, store.AuditFilter{
		Action:     q.Action,
		ResourceID: q.ResourceID,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
