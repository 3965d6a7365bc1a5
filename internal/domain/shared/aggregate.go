package shared

import "github.com/google/uuid"

// BaseAggregateRoot queues the events an aggregate raises until the service
// pulls them after commit
type BaseAggregateRoot struct {
	BaseEntity
	pending []DomainEvent
}

// NewBaseAggregateRoot creates a root with a fresh entity and no events
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity()}
}

// RecordEvent queues event for publication
func (a *BaseAggregateRoot) RecordEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// PendingEvents returns the queued events without draining them
func (a *BaseAggregateRoot) PendingEvents() []DomainEvent {
	return a.pending
}

// PullEvents returns the queued events and empties the queue
func (a *BaseAggregateRoot) PullEvents() []DomainEvent {
	events := a.pending
	a.pending = nil
	return events
}

// OwnedAggregateRoot is an aggregate attributed to the user who created it.
// CreatedBy is nil for records without a creator.
type OwnedAggregateRoot struct {
	BaseAggregateRoot
	CreatedBy *uuid.UUID
}

// NewOwnedAggregateRoot attributes a new root to createdBy; uuid.Nil leaves it unowned
func NewOwnedAggregateRoot(createdBy uuid.UUID) OwnedAggregateRoot {
	root := OwnedAggregateRoot{BaseAggregateRoot: NewBaseAggregateRoot()}
	if createdBy != uuid.Nil {
		root.CreatedBy = &createdBy
	}
	return root
}

// IsOwnedBy reports whether userID created this record
func (o *OwnedAggregateRoot) IsOwnedBy(userID uuid.UUID) bool {
	return o.CreatedBy != nil && *o.CreatedBy == userID
}
