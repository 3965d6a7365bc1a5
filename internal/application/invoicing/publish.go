package invoicing

import (
	"context"

	"github.com/invoicing/backend/internal/domain/shared"
)

// publishAggregate drains the aggregate's pending events onto the bus
func publishAggregate(ctx context.Context, publisher shared.EventPublisher, root *shared.BaseAggregateRoot) {
	publishEvents(ctx, publisher, root.PullEvents()...)
}

func publishEvents(ctx context.Context, publisher shared.EventPublisher, events ...shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	// the bus logs handler failures itself; the operation has already committed
	_ = publisher.Publish(ctx, events...)
}
