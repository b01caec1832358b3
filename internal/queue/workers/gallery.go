package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/bodyshop/internal/queue"
	"github.com/nikhilbhutani/bodyshop/internal/storage"
)

// GalleryCleanupWorker removes the stored images of deleted gallery items.
type GalleryCleanupWorker struct {
	storage storage.Storage
}

func NewGalleryCleanupWorker(store storage.Storage) *GalleryCleanupWorker {
	return &GalleryCleanupWorker{storage: store}
}

func (w *GalleryCleanupWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.GalleryImageCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	var errs []error
	for _, path := range payload.Paths {
		if err := w.storage.Delete(ctx, payload.Bucket, path); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", path, err))
			continue
		}
		slog.Info("removed gallery image", "item_id", payload.ItemID, "path", path)
	}
	return errors.Join(errs...)
}
