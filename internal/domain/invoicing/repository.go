package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CustomerRepository defines persistence operations for customers.
// Every method returns fully materialized results.
type CustomerRepository interface {
	// FindByID returns a *shared.NotFoundError when the customer does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	// FindAll lists customers newest first, matching Search against name, email or phone
	FindAll(ctx context.Context, filter shared.ListFilter) ([]Customer, error)
	// ExistsByEmail reports whether another customer than excludeID uses email
	ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
	Create(ctx context.Context, customer *Customer) error
	Update(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// InvoiceListing is an invoice together with its customer's name
type InvoiceListing struct {
	Invoice      Invoice
	CustomerName string
}

// InvoiceRepository defines persistence operations for invoices.
// Loaded invoices always carry their articles in line order.
type InvoiceRepository interface {
	// FindByID returns a *shared.NotFoundError when the invoice does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindAll lists invoices newest first, matching Search against the
	// customer name or the invoice ID
	FindAll(ctx context.Context, filter shared.ListFilter) ([]InvoiceListing, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Invoice, error)
	// FindInRange returns invoices created inside the inclusive range
	FindInRange(ctx context.Context, dateRange shared.DateRange) ([]Invoice, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
	CountPaidByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
	// Create inserts the invoice header only; lines go through ArticleRepository
	Create(ctx context.Context, invoice *Invoice) error
	// Update writes the mutable header fields
	Update(ctx context.Context, invoice *Invoice) error
	// SetPaidStatus updates the paid flag and timestamp of every listed invoice.
	// When createdBy is set only invoices created by that user are touched.
	// It returns the IDs actually updated.
	SetPaidStatus(ctx context.Context, ids []uuid.UUID, createdBy *uuid.UUID, paid bool, at time.Time) ([]uuid.UUID, error)
	// Touch refreshes the stored total and update timestamp
	Touch(ctx context.Context, id uuid.UUID, storedTotal decimal.Decimal, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ArticleRepository defines persistence operations for invoice lines
type ArticleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Article, error)
	// FindByInvoice returns the lines of an invoice in line order
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Article, error)
	CreateBatch(ctx context.Context, articles []Article) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByInvoice removes every line of an invoice and returns how many were removed
	DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error)
}
