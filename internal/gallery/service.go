// Package gallery manages the before/after photo gallery shown on the public
// site.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/bodyshop/internal/cache"
	"github.com/nikhilbhutani/bodyshop/internal/models"
	"github.com/nikhilbhutani/bodyshop/internal/queue"
	"github.com/nikhilbhutani/bodyshop/internal/storage"
	"github.com/nikhilbhutani/bodyshop/internal/store"
)

const (
	PublicCacheKey = "gallery:public"
	PublicCacheTTL = 5 * time.Minute
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("gallery item not found")
	ErrStorageUnavailable = errors.New("image storage not configured")
)

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Images is object storage that can map its public URLs back to object paths.
type Images interface {
	storage.Storage
	ObjectPath(bucket, publicURL string) (string, bool)
}

type CleanupQueue interface {
	EnqueueGalleryImageCleanup(payload queue.GalleryImageCleanupPayload) error
}

type Recorder interface {
	Record(ctx context.Context, action, resourceType string, resourceID uuid.UUID, details map[string]any) error
}

type Service struct {
	store    store.GalleryStore
	cache    Cache
	images   Images
	bucket   string
	cleanup  CleanupQueue
	recorder Recorder
	now      func() time.Time
}

// NewService wires the gallery. cache, images, cleanup and recorder may be
// nil; the matching features are then skipped.
func NewService(st store.GalleryStore, c Cache, images Images, bucket string, cleanup CleanupQueue, recorder Recorder) *Service {
	return &Service{
		store:    st,
		cache:    c,
		images:   images,
		bucket:   bucket,
		cleanup:  cleanup,
		recorder: recorder,
		now:      time.Now,
	}
}

// ListPublic returns the active items in display order.
func (s *Service) ListPublic(ctx context.Context) ([]models.GalleryItem, error) {
	if s.cache != nil {
		var cached []models.GalleryItem
		err := s.cache.Get(ctx, PublicCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			slog.WarnContext(ctx, "gallery cache read failed", "error", err)
		}
	}

	items, err := s.store.ListGalleryItems(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list gallery items: %w", err)
	}
	if items == nil {
		items = []models.GalleryItem{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, PublicCacheKey, items, PublicCacheTTL); err != nil {
			slog.WarnContext(ctx, "gallery cache write failed", "error", err)
		}
	}
	return items, nil
}

// ListAll includes hidden items.
func (s *Service) ListAll(ctx context.Context) ([]models.GalleryItem, error) {
	items, err := s.store.ListGalleryItems(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list gallery items: %w", err)
	}
	return items, nil
}

type ItemInput struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	BeforeImageURL string `json:"before_image_url"`
	AfterImageURL  string `json:"after_image_url"`
	DisplayOrder   *int   `json:"display_order"`
	IsActive       *bool  `json:"is_active"`
}

func (s *Service) Create(ctx context.Context, in ItemInput) (*models.GalleryItem, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: Title is required", ErrInvalidInput)
	}

	item := models.GalleryItem{IsActive: true}
	apply(&item, in)

	created, err := s.store.InsertGalleryItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("insert gallery item: %w", err)
	}
	s.invalidate(ctx)
	s.record(ctx, "gallery.created", created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in ItemInput) (*models.GalleryItem, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: Title is required", ErrInvalidInput)
	}

	cur, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := *cur
	apply(cur, in)

	updated, err := s.store.UpdateGalleryItem(ctx, *cur)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update gallery item: %w", err)
	}
	s.invalidate(ctx)
	s.record(ctx, "gallery.updated", id)

	var replaced []string
	if prev.BeforeImageURL != updated.BeforeImageURL {
		replaced = append(replaced, prev.BeforeImageURL)
	}
	if prev.AfterImageURL != updated.AfterImageURL {
		replaced = append(replaced, prev.AfterImageURL)
	}
	s.scheduleCleanup(ctx, id, replaced...)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	item, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteGalleryItem(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete gallery item: %w", err)
	}
	s.invalidate(ctx)
	s.record(ctx, "gallery.deleted", id)
	s.scheduleCleanup(ctx, id, item.BeforeImageURL, item.AfterImageURL)
	return nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*models.GalleryItem, error) {
	item, err := s.store.GetGalleryItem(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get gallery item: %w", err)
	}
	return item, nil
}

func apply(item *models.GalleryItem, in ItemInput) {
	item.Title = strings.TrimSpace(in.Title)
	item.Description = in.Description
	item.BeforeImageURL = in.BeforeImageURL
	item.AfterImageURL = in.AfterImageURL
	if in.DisplayOrder != nil {
		item.DisplayOrder = *in.DisplayOrder
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, PublicCacheKey); err != nil {
		slog.WarnContext(ctx, "gallery cache invalidation failed", "error", err)
	}
}

// scheduleCleanup queues removal of the stored objects behind urls. URLs that
// do not point into the bucket are left alone.
func (s *Service) scheduleCleanup(ctx context.Context, id uuid.UUID, urls ...string) {
	if s.cleanup == nil || s.images == nil {
		return
	}
	var paths []string
	for _, u := range urls {
		if p, ok := s.images.ObjectPath(s.bucket, u); ok {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return
	}
	err := s.cleanup.EnqueueGalleryImageCleanup(queue.GalleryImageCleanupPayload{
		ItemID: id.String(),
		Bucket: s.bucket,
		Paths:  paths,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to enqueue image cleanup", "item_id", id, "error", err)
	}
}

func (s *Service) record(ctx context.Context, action string, id uuid.UUID) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, action, "gallery_item", id, nil); err != nil {
		slog.WarnContext(ctx, "failed to record activity", "action", action, "error", err)
	}
}
