package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yutosugimura/saltbreeze-backend/pkg/enums"
)

// Event is one outbound notification. Delivery is best effort: the flows that
// emit events never fail because a notification could not be sent.
type Event struct {
	Kind       enums.NotificationKind `json:"kind"`
	OrderID    uuid.UUID              `json:"order_id"`
	Recipient  string                 `json:"recipient,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]any         `json:"data,omitempty"`
}

// Dispatcher hands notification events to the delivery channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// NoopDispatcher swallows every event. Used in tests and when no project is
// configured.
type NoopDispatcher struct{}

// Dispatch implements Dispatcher.
func (NoopDispatcher) Dispatch(ctx context.Context, event Event) error {
	return nil
}
