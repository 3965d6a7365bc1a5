package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact about a billing record, published after the
// operation that produced it has committed
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	// ActorID is the user whose operation produced the event, uuid.Nil for system work
	ActorID() uuid.UUID
}

// BaseDomainEvent implements the DomainEvent accessors; concrete events embed
// it and add their payload fields
type BaseDomainEvent struct {
	id            uuid.UUID
	eventType     string
	occurredAt    time.Time
	aggregateID   uuid.UUID
	aggregateType string
	actorID       uuid.UUID
}

// NewBaseDomainEvent stamps a fresh event ID and the current time
func NewBaseDomainEvent(eventType, aggregateType string, aggregateID, actorID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		id:            uuid.New(),
		eventType:     eventType,
		occurredAt:    Now(),
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		actorID:       actorID,
	}
}

func (e BaseDomainEvent) EventID() uuid.UUID     { return e.id }
func (e BaseDomainEvent) EventType() string      { return e.eventType }
func (e BaseDomainEvent) OccurredAt() time.Time  { return e.occurredAt }
func (e BaseDomainEvent) AggregateID() uuid.UUID { return e.aggregateID }
func (e BaseDomainEvent) AggregateType() string  { return e.aggregateType }
func (e BaseDomainEvent) ActorID() uuid.UUID     { return e.actorID }

// EventHandler is an observer of committed billing events
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the handled types; empty means every event
	EventTypes() []string
}

// EventPublisher is the side of the bus the services see
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus adds observer registration and shutdown gating to EventPublisher
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
