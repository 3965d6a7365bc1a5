package invoicing

import (
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeCustomer = "Customer"
	AggregateTypeInvoice  = "Invoice"
	AggregateTypeArticle  = "Article"
)

// Event type constants
const (
	EventTypeCustomerCreated               = "CustomerCreated"
	EventTypeCustomerUpdated               = "CustomerUpdated"
	EventTypeCustomerDeleted               = "CustomerDeleted"
	EventTypeInvoiceCreated                = "InvoiceCreated"
	EventTypeInvoicePaidStatusChanged      = "InvoicePaidStatusChanged"
	EventTypeInvoicesBulkPaidStatusChanged = "InvoicesBulkPaidStatusChanged"
	EventTypeInvoiceCommentsUpdated        = "InvoiceCommentsUpdated"
	EventTypeInvoiceDeleted                = "InvoiceDeleted"
	EventTypeArticleAdded                  = "ArticleAdded"
	EventTypeArticleRemoved                = "ArticleRemoved"
)

// CustomerCreatedEvent is published when a new customer is created
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
}

// NewCustomerCreatedEvent creates a new CustomerCreatedEvent
func NewCustomerCreatedEvent(customer *Customer, actorID uuid.UUID) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, AggregateTypeCustomer, customer.ID, actorID),
		CustomerID:      customer.ID,
		Name:            customer.Name,
		Email:           customer.Email,
	}
}

// CustomerUpdatedEvent is published when a customer profile changes
type CustomerUpdatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
}

// NewCustomerUpdatedEvent creates a new CustomerUpdatedEvent
func NewCustomerUpdatedEvent(customer *Customer, actorID uuid.UUID) *CustomerUpdatedEvent {
	return &CustomerUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerUpdated, AggregateTypeCustomer, customer.ID, actorID),
		CustomerID:      customer.ID,
		Name:            customer.Name,
		Email:           customer.Email,
	}
}

// CustomerDeletedEvent is published after a customer is removed
type CustomerDeletedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Name       string    `json:"name"`
}

// NewCustomerDeletedEvent creates a new CustomerDeletedEvent
func NewCustomerDeletedEvent(customer *Customer, actorID uuid.UUID) *CustomerDeletedEvent {
	return &CustomerDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerDeleted, AggregateTypeCustomer, customer.ID, actorID),
		CustomerID:      customer.ID,
		Name:            customer.Name,
	}
}

// InvoiceCreatedEvent is published when an invoice and its lines are committed
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	InvoiceType  InvoiceType     `json:"invoice_type"`
	Total        decimal.Decimal `json:"total"`
	ArticleCount int             `json:"article_count"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(invoice *Invoice, actorID uuid.UUID) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, invoice.ID, actorID),
		InvoiceID:       invoice.ID,
		CustomerID:      invoice.CustomerID,
		InvoiceType:     invoice.Type,
		Total:           invoice.Total(),
		ArticleCount:    len(invoice.Articles),
	}
}

// InvoicePaidStatusChangedEvent is published on every paid/unpaid mark,
// including marks that leave the flag unchanged
type InvoicePaidStatusChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
	Previous  bool      `json:"previous"`
	Paid      bool      `json:"paid"`
}

// NewInvoicePaidStatusChangedEvent creates a new InvoicePaidStatusChangedEvent
func NewInvoicePaidStatusChangedEvent(invoice *Invoice, previous bool, actorID uuid.UUID) *InvoicePaidStatusChangedEvent {
	return &InvoicePaidStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaidStatusChanged, AggregateTypeInvoice, invoice.ID, actorID),
		InvoiceID:       invoice.ID,
		Previous:        previous,
		Paid:            invoice.Paid,
	}
}

// InvoicesBulkPaidStatusChangedEvent is published after a bulk status update
type InvoicesBulkPaidStatusChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceIDs []uuid.UUID `json:"invoice_ids"`
	Paid       bool        `json:"paid"`
	Requested  int         `json:"requested"`
}

// NewInvoicesBulkPaidStatusChangedEvent creates a new InvoicesBulkPaidStatusChangedEvent
func NewInvoicesBulkPaidStatusChangedEvent(updated []uuid.UUID, paid bool, requested int, actorID uuid.UUID) *InvoicesBulkPaidStatusChangedEvent {
	return &InvoicesBulkPaidStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicesBulkPaidStatusChanged, AggregateTypeInvoice, uuid.Nil, actorID),
		InvoiceIDs:      updated,
		Paid:            paid,
		Requested:       requested,
	}
}

// InvoiceCommentsUpdatedEvent is published when comments are edited
type InvoiceCommentsUpdatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
}

// NewInvoiceCommentsUpdatedEvent creates a new InvoiceCommentsUpdatedEvent
func NewInvoiceCommentsUpdatedEvent(invoice *Invoice, actorID uuid.UUID) *InvoiceCommentsUpdatedEvent {
	return &InvoiceCommentsUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCommentsUpdated, AggregateTypeInvoice, invoice.ID, actorID),
		InvoiceID:       invoice.ID,
	}
}

// InvoiceDeletedEvent is published after an invoice and its lines are removed
type InvoiceDeletedEvent struct {
	shared.BaseDomainEvent
	InvoiceID    uuid.UUID `json:"invoice_id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	ArticleCount int       `json:"article_count"`
}

// NewInvoiceDeletedEvent creates a new InvoiceDeletedEvent
func NewInvoiceDeletedEvent(invoice *Invoice, actorID uuid.UUID) *InvoiceDeletedEvent {
	return &InvoiceDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceDeleted, AggregateTypeInvoice, invoice.ID, actorID),
		InvoiceID:       invoice.ID,
		CustomerID:      invoice.CustomerID,
		ArticleCount:    len(invoice.Articles),
	}
}

// ArticleAddedEvent is published when a line is added to an existing invoice
type ArticleAddedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	ArticleID uuid.UUID       `json:"article_id"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// NewArticleAddedEvent creates a new ArticleAddedEvent
func NewArticleAddedEvent(invoice *Invoice, article *Article, actorID uuid.UUID) *ArticleAddedEvent {
	return &ArticleAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeArticleAdded, AggregateTypeInvoice, invoice.ID, actorID),
		InvoiceID:       invoice.ID,
		ArticleID:       article.ID,
		LineTotal:       article.LineTotal(),
	}
}

// ArticleRemovedEvent is published when a line is removed from an invoice
type ArticleRemovedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	ArticleID uuid.UUID       `json:"article_id"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// NewArticleRemovedEvent creates a new ArticleRemovedEvent
func NewArticleRemovedEvent(invoice *Invoice, article *Article, actorID uuid.UUID) *ArticleRemovedEvent {
	return &ArticleRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeArticleRemoved, AggregateTypeInvoice, invoice.ID, actorID),
		InvoiceID:       invoice.ID,
		ArticleID:       article.ID,
		LineTotal:       article.LineTotal(),
	}
}

// InvoiceIDOf returns the invoice an article event refers to
func InvoiceIDOf(event shared.DomainEvent) (uuid.UUID, bool) {
	switch e := event.(type) {
	case *ArticleAddedEvent:
		return e.InvoiceID, true
	case *ArticleRemovedEvent:
		return e.InvoiceID, true
	}
	return uuid.Nil, false
}
