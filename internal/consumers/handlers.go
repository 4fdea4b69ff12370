package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"ticketnow/internal/models"

	"github.com/nats-io/stan.go"
)

const handlerTimeout = 20 * time.Second

// EventIndexer maintains the search index
type EventIndexer interface {
	IndexEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id int64) error
}

// EventLoader reads the current state of an event
type EventLoader interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
}

type Handlers struct {
	events  EventLoader
	indexer EventIndexer
}

func NewHandlers(events EventLoader, indexer EventIndexer) *Handlers {
	return &Handlers{
		events:  events,
		indexer: indexer,
	}
}

// HandleEventChanged syncs the search index with an event mutation. The
// message is not acked on failure so it is redelivered after AckWait.
func (h *Handlers) HandleEventChanged(m *stan.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := h.syncEvent(ctx, m.Data); err != nil {
		slog.Error("Failed to sync event to search index", "subject", m.Subject, "error", err)
		return
	}
	ack(m)
}

// syncEvent indexes the event as currently stored rather than the message
// payload, so redelivered and reordered messages converge on the same state.
func (h *Handlers) syncEvent(ctx context.Context, data []byte) error {
	var msg models.EventChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		// a malformed message will never succeed
		slog.Error("Failed to unmarshal event changed message", "error", err)
		return nil
	}

	event, err := h.events.GetByID(ctx, msg.EventID)
	if err != nil {
		return fmt.Errorf("failed to load event %d: %w", msg.EventID, err)
	}

	if event == nil {
		if err := h.indexer.DeleteEvent(ctx, msg.EventID); err != nil {
			return err
		}
		slog.Info("Event removed from search index", "event_id", msg.EventID)
		return nil
	}

	if err := h.indexer.IndexEvent(ctx, event); err != nil {
		return err
	}
	slog.Debug("Event indexed", "event_id", event.ID)
	return nil
}

// HandleOrderMessage records order lifecycle messages
func (h *Handlers) HandleOrderMessage(m *stan.Msg) {
	var msg models.OrderMessage
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		slog.Error("Failed to unmarshal order message", "subject", m.Subject, "error", err)
		ack(m)
		return
	}

	slog.Info("Order status changed",
		"subject", m.Subject,
		"order_id", msg.OrderID,
		"event_id", msg.EventID,
		"status", msg.Status,
		"payment_status", msg.PaymentStatus,
		"reason", msg.Reason)

	ack(m)
}

func ack(m *stan.Msg) {
	if err := m.Ack(); err != nil {
		slog.Warn("Failed to ack message", "subject", m.Subject, "error", err)
	}
}
