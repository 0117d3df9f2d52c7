package events

import (
	"context"
	"time"

	"github.com/Skotchmaster/craft_store/pkg/logging"
)

const (
	TopicOrders = "order_events"
	TopicCarts  = "cart_events"
	TopicStock  = "stock_events"
)

const (
	OrderCreated             = "order_created"
	OrderStatusChanged       = "order_status_changed"
	OrderAnnulled            = "order_annulled"
	OrderAdjustmentApplied   = "order_adjustment_applied"
	OrderAdjustmentReverted  = "order_adjustment_reverted"
	OrderDeliveryDateChanged = "order_delivery_date_changed"
	CartUpdated              = "cart_updated"
	StockReserved            = "stock_reserved"
	StockReleased            = "stock_released"
)

const publishTimeout = 5 * time.Second

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type Nop struct{}

func (Nop) PublishEvent(context.Context, string, string, any) error { return nil }

// Event is the envelope written to every topic.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publish sends an event after the triggering write has committed. Failures
// are logged and swallowed.
func Publish(ctx context.Context, p Publisher, topic, key, eventType string, payload any) {
	if p == nil {
		return
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	ev := Event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload}
	if err := p.PublishEvent(pctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "topic", topic, "type", eventType, "key", key, "error", err)
	}
}
