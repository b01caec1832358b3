package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/bodyshop/internal/config"
	"github.com/nikhilbhutani/bodyshop/internal/queue"
)

// Enqueuer hands deliveries to the background worker.
type Enqueuer interface {
	EnqueueWebhookDeliver(payload queue.WebhookDeliverPayload) error
}

type Event struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	CreatedAt time.Time `json:"created_at"`
	Data      any       `json:"data"`
}

// Notifier publishes domain events to the shop's webhook endpoint, through
// the task queue when one is given and in-process otherwise.
type Notifier struct {
	queue      Enqueuer
	dispatcher *Dispatcher
	enabled    bool
}

func NewNotifier(cfg config.WebhookConfig, q Enqueuer) *Notifier {
	n := &Notifier{queue: q, enabled: cfg.URL != ""}
	if n.enabled && q == nil {
		n.dispatcher = NewDispatcher(NewSender(cfg.URL, cfg.Secret))
	}
	return n
}

func (n *Notifier) Publish(ctx context.Context, event string, payload any) error {
	if !n.enabled {
		return nil
	}

	ev := Event{
		ID:        uuid.NewString(),
		Event:     event,
		CreatedAt: time.Now().UTC(),
		Data:      payload,
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if n.queue != nil {
		if err := n.queue.EnqueueWebhookDeliver(queue.WebhookDeliverPayload{
			DeliveryID: ev.ID,
			Event:      event,
			Payload:    string(body),
		}); err != nil {
			return fmt.Errorf("enqueue webhook: %w", err)
		}
		slog.DebugContext(ctx, "webhook queued", "delivery_id", ev.ID, "event", event)
		return nil
	}

	n.dispatcher.enqueue(delivery{id: ev.ID, event: event, body: body})
	return nil
}

// Close drains the in-process dispatcher, if one is running.
func (n *Notifier) Close() {
	if n.dispatcher != nil {
		n.dispatcher.Close()
	}
}
