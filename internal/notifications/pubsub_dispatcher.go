package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
)

const publishTimeout = 15 * time.Second

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) *gcppubsub.PublishResult
}

// PubSubDispatcher publishes notification events to the notification topic.
// A downstream worker turns them into customer emails and admin alerts.
type PubSubDispatcher struct {
	publisher publisher
}

// NewPubSubDispatcher builds a dispatcher over a topic publisher handle.
func NewPubSubDispatcher(pub *gcppubsub.Publisher) (*PubSubDispatcher, error) {
	if pub == nil {
		return nil, fmt.Errorf("publisher required")
	}
	return &PubSubDispatcher{publisher: pub}, nil
}

// Dispatch implements Dispatcher.
func (d *PubSubDispatcher) Dispatch(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode notification event")
	}

	msg := &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"kind":        event.Kind.String(),
			"order_id":    event.OrderID.String(),
			"occurred_at": event.OccurredAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	result := d.publisher.Publish(publishCtx, msg)
	if result == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish notification event")
	}
	return nil
}
