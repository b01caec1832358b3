package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/bodyshop/internal/queue"
	"github.com/nikhilbhutani/bodyshop/internal/webhook"
)

type WebhookWorker struct {
	sender *webhook.Sender
}

func NewWebhookWorker(sender *webhook.Sender) *WebhookWorker {
	return &WebhookWorker{sender: sender}
}

func (w *WebhookWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.WebhookDeliverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := w.sender.Deliver(ctx, payload.DeliveryID, payload.Event, []byte(payload.Payload)); err != nil {
		return err
	}
	slog.Info("webhook delivered", "delivery_id", payload.DeliveryID, "event", payload.Event)
	return nil
}
