package invoicing

import (
	"context"
	"errors"
	"fmt"

	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// InvoiceTouchHandler keeps an invoice's update timestamp and stored total in
// step with its articles after a line is added or removed
type InvoiceTouchHandler struct {
	invoices invoicing.InvoiceRepository
	articles invoicing.ArticleRepository
	logger   *zap.Logger
}

// NewInvoiceTouchHandler creates a new InvoiceTouchHandler
func NewInvoiceTouchHandler(invoices invoicing.InvoiceRepository, articles invoicing.ArticleRepository, logger *zap.Logger) *InvoiceTouchHandler {
	return &InvoiceTouchHandler{
		invoices: invoices,
		articles: articles,
		logger:   logger.Named("invoice_touch"),
	}
}

// EventTypes returns the event types this handler is interested in
func (h *InvoiceTouchHandler) EventTypes() []string {
	return []string{invoicing.EventTypeArticleAdded, invoicing.EventTypeArticleRemoved}
}

// Handle recomputes the stored total from the persisted articles
func (h *InvoiceTouchHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	invoiceID, ok := invoicing.InvoiceIDOf(event)
	if !ok {
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	articles, err := h.articles.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("load articles of invoice %s: %w", invoiceID, err)
	}
	total := invoicing.InvoiceTotal(articles)

	if err := h.invoices.Touch(ctx, invoiceID, total, shared.Now()); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.logger.Debug("invoice gone before touch", zap.String("invoice_id", invoiceID.String()))
			return nil
		}
		return fmt.Errorf("touch invoice %s: %w", invoiceID, err)
	}

	logger.Enrich(ctx, h.logger).Debug("invoice touched",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("stored_total", money(total)),
		zap.String("trigger", event.EventType()),
	)
	return nil
}

// AuditLogHandler writes one structured log line per billing event
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes returns nil so the handler receives every event
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	logger.Enrich(ctx, h.logger).Info("billing event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("actor_id", event.ActorID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

var (
	_ shared.EventHandler = (*InvoiceTouchHandler)(nil)
	_ shared.EventHandler = (*AuditLogHandler)(nil)
)
