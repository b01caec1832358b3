package webhook

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher delivers events from an in-process buffer. It stands in for the
// task queue when redis is unavailable; undelivered events are lost on exit.
type Dispatcher struct {
	sender     *Sender
	deliveries chan delivery
	done       chan struct{}

	mu     sync.Mutex
	closed bool
}

type delivery struct {
	id    string
	event string
	body  []byte
}

func NewDispatcher(sender *Sender) *Dispatcher {
	d := &Dispatcher{
		sender:     sender,
		deliveries: make(chan delivery, 256),
		done:       make(chan struct{}),
	}
	go d.processLoop()
	return d
}

func (d *Dispatcher) enqueue(dl delivery) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		slog.Warn("webhook dispatcher closed, dropping", "delivery_id", dl.id, "event", dl.event)
		return
	}
	select {
	case d.deliveries <- dl:
	default:
		slog.Warn("webhook delivery queue full, dropping", "delivery_id", dl.id, "event", dl.event)
	}
}

func (d *Dispatcher) processLoop() {
	defer close(d.done)
	for dl := range d.deliveries {
		d.deliver(dl)
	}
}

func (d *Dispatcher) deliver(dl delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := d.sender.Deliver(ctx, dl.id, dl.event, dl.body); err != nil {
		slog.Error("webhook delivery failed", "error", err, "delivery_id", dl.id, "event", dl.event)
		return
	}
	slog.Info("webhook delivered", "delivery_id", dl.id, "event", dl.event)
}

// Close stops accepting events and waits for buffered ones to be sent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.deliveries)
	}
	d.mu.Unlock()
	<-d.done
}
