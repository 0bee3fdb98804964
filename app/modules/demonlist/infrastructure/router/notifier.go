package demonlistrouter

import (
	"context"
	"encoding/json"
	"fmt"

	demonlistevents "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/events"
	"github.com/Black-And-White-Club/demonlist-tracker/app/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// ChangeNotifier publishes demonlist.changed.v1 on the event bus.
type ChangeNotifier struct {
	publisher message.Publisher
}

// NewChangeNotifier publishes change notices through publisher.
func NewChangeNotifier(publisher message.Publisher) *ChangeNotifier {
	return &ChangeNotifier{publisher: publisher}
}

// PublishChanged sends payload on the changed topic, carrying the correlation ID
// found in ctx.
func (n *ChangeNotifier) PublishChanged(ctx context.Context, payload demonlistevents.ChangedPayloadV1) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal change notice: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	if id := attr.CorrelationID(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}

	return n.publisher.Publish(demonlistevents.ChangedV1, msg)
}
