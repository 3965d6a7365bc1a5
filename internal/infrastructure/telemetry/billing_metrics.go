package telemetry

import (
	"context"

	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
)

// BillingMetrics turns committed domain events into counters. It subscribes
// to every event type.
type BillingMetrics struct {
	events         *Counter
	invoices       *Counter
	invoiceAmount  *Histogram
	paidChanges    *Counter
	customers      *Counter
	deletedRecords *Counter
}

// NewBillingMetrics creates the billing instruments on mp
func NewBillingMetrics(mp *MeterProvider) (*BillingMetrics, error) {
	meter := mp.Meter("invoicing-backend/billing")

	events, err := NewCounter(meter, "billing_events_total", "Domain events observed", "{event}")
	if err != nil {
		return nil, err
	}
	invoices, err := NewCounter(meter, "billing_invoices_created_total", "Invoices created", "{invoice}")
	if err != nil {
		return nil, err
	}
	amount, err := NewHistogram(meter, HistogramOpts{
		Name:        "billing_invoice_amount",
		Description: "Total of created invoices",
		Unit:        "1",
		Boundaries:  AmountBuckets,
	})
	if err != nil {
		return nil, err
	}
	paid, err := NewCounter(meter, "billing_paid_status_changes_total", "Invoices marked paid or unpaid", "{invoice}")
	if err != nil {
		return nil, err
	}
	customers, err := NewCounter(meter, "billing_customers_created_total", "Customers created", "{customer}")
	if err != nil {
		return nil, err
	}
	deleted, err := NewCounter(meter, "billing_records_deleted_total", "Customers and invoices deleted", "{record}")
	if err != nil {
		return nil, err
	}

	return &BillingMetrics{
		events:         events,
		invoices:       invoices,
		invoiceAmount:  amount,
		paidChanges:    paid,
		customers:      customers,
		deletedRecords: deleted,
	}, nil
}

// EventTypes returns nil so the bus delivers every event
func (m *BillingMetrics) EventTypes() []string {
	return nil
}

// Handle records the event
func (m *BillingMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	m.events.Inc(ctx, AttrEventType.String(event.EventType()))

	switch e := event.(type) {
	case *invoicing.InvoiceCreatedEvent:
		m.invoices.Inc(ctx, AttrInvoiceType.String(string(e.InvoiceType)))
		m.invoiceAmount.Record(ctx, e.Total.InexactFloat64(), AttrInvoiceType.String(string(e.InvoiceType)))
	case *invoicing.InvoicePaidStatusChangedEvent:
		m.paidChanges.Inc(ctx, AttrPaid.Bool(e.Paid))
	case *invoicing.InvoicesBulkPaidStatusChangedEvent:
		m.paidChanges.Add(ctx, int64(len(e.InvoiceIDs)), AttrPaid.Bool(e.Paid))
	case *invoicing.CustomerCreatedEvent:
		m.customers.Inc(ctx)
	case *invoicing.CustomerDeletedEvent, *invoicing.InvoiceDeletedEvent:
		m.deletedRecords.Inc(ctx, AttrEventType.String(event.EventType()))
	}
	return nil
}

var _ shared.EventHandler = (*BillingMetrics)(nil)
