package invoicing

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultListLimit caps list results when no limit is configured
const DefaultListLimit = 200

// QueryService serves the read contract and the aggregations. It never
// writes and never reads the stored invoice total.
type QueryService struct {
	customers invoicing.CustomerRepository
	invoices  invoicing.InvoiceRepository
	policy    identity.Policy
	listLimit int
}

// NewQueryService creates a new QueryService. A non-positive listLimit falls
// back to DefaultListLimit.
func NewQueryService(customers invoicing.CustomerRepository, invoices invoicing.InvoiceRepository, policy identity.Policy, listLimit int) *QueryService {
	if listLimit <= 0 {
		listLimit = DefaultListLimit
	}
	return &QueryService{
		customers: customers,
		invoices:  invoices,
		policy:    policy,
		listLimit: listLimit,
	}
}

// ListLimit is the cap applied to list results
func (s *QueryService) ListLimit() int {
	return s.listLimit
}

// ListInvoices returns the newest invoices first, optionally filtered by a
// case-insensitive substring of the customer name or the invoice ID
func (s *QueryService) ListInvoices(ctx context.Context, actor identity.Actor, q string) ([]InvoiceResponse, error) {
	if err := identity.Guard(s.policy, actor, identity.CapabilityView); err != nil {
		return nil, err
	}
	listings, err := s.invoices.FindAll(ctx, shared.ListFilter{Search: q, Limit: s.listLimit})
	if err != nil {
		return nil, err
	}
	out := make([]InvoiceResponse, len(listings))
	for i := range listings {
		out[i] = ToInvoiceResponse(&listings[i].Invoice, listings[i].CustomerName)
	}
	return out, nil
}

// GetInvoice returns an invoice with its lines in order
func (s *QueryService) GetInvoice(ctx context.Context, actor identity.Actor, id uuid.UUID) (*InvoiceDetailResponse, error) {
	if err := identity.Guard(s.policy, actor, identity.CapabilityView); err != nil {
		return nil, err
	}
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.FindByID(ctx, invoice.CustomerID)
	if err != nil {
		return nil, err
	}
	return ToInvoiceDetailResponse(invoice, customer.Name), nil
}

// ListCustomers returns the newest customers first, optionally filtered by a
// case-insensitive substring of name, email or phone
func (s *QueryService) ListCustomers(ctx context.Context, actor identity.Actor, q string) ([]CustomerResponse, error) {
	if err := identity.Guard(s.policy, actor, identity.CapabilityView); err != nil {
		return nil, err
	}
	customers, err := s.customers.FindAll(ctx, shared.ListFilter{Search: q, Limit: s.listLimit})
	if err != nil {
		return nil, err
	}
	out := make([]CustomerResponse, len(customers))
	for i := range customers {
		out[i] = *ToCustomerResponse(&customers[i])
	}
	return out, nil
}

// GetCustomer returns a single customer
func (s *QueryService) GetCustomer(ctx context.Context, actor identity.Actor, id uuid.UUID) (*CustomerResponse, error) {
	if err := identity.Guard(s.policy, actor, identity.CapabilityView); err != nil {
		return nil, err
	}
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToCustomerResponse(customer), nil
}

// InvoiceTotal returns the sum of an invoice's line totals
func (s *QueryService) InvoiceTotal(ctx context.Context, actor identity.Actor, id uuid.UUID) (decimal.Decimal, error) {
	if err := identity.Guard(s.policy, actor, identity.CapabilityView); err != nil {
		return decimal.Zero, err
	}
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return invoice.Total(), nil
}

// CustomerTotal returns the sum of all invoice totals of a customer
func (s *QueryService) CustomerTotal(ctx context.Context, actor identity.Actor, customerID uuid.UUID) (decimal.Decimal, error) {
	invoices, err := s.customerInvoices(ctx, actor, identity.CapabilityView, customerID)
	if err != nil {
		return decimal.Zero, err
	}
	return invoicing.CustomerTotal(invoices), nil
}

// CustomerPaidCount returns how many of a customer's invoices are paid
func (s *QueryService) CustomerPaidCount(ctx context.Context, actor identity.Actor, customerID uuid.UUID) (int64, error) {
	if err := identity.Guard(s.policy, actor, identity.CapabilityView); err != nil {
		return 0, err
	}
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return 0, err
	}
	return s.invoices.CountPaidByCustomer(ctx, customerID)
}

// CustomerSummary aggregates one customer's invoices
func (s *QueryService) CustomerSummary(ctx context.Context, actor identity.Actor, customerID uuid.UUID) (*CustomerSummaryResponse, error) {
	invoices, err := s.customerInvoices(ctx, actor, identity.CapabilityReadStatistics, customerID)
	if err != nil {
		return nil, err
	}
	summary := invoicing.SummarizeCustomer(customerID, invoices)
	return &CustomerSummaryResponse{
		CustomerID:     summary.CustomerID,
		TotalInvoices:  summary.TotalInvoices,
		PaidInvoices:   summary.PaidInvoices,
		UnpaidInvoices: summary.UnpaidInvoices,
		TotalAmount:    money(summary.TotalAmount),
	}, nil
}

// InvoiceStatistics aggregates the invoices created inside the filter's
// inclusive range. An open bound is unlimited; an inverted range matches
// nothing and yields zero statistics.
func (s *QueryService) InvoiceStatistics(ctx context.Context, actor identity.Actor, filter StatisticsFilter) (*StatisticsResponse, error) {
	if err := identity.Guard(s.policy, actor, identity.CapabilityReadStatistics); err != nil {
		return nil, err
	}
	dateRange := shared.DateRange{Start: filter.Start, End: filter.End}
	if dateRange.IsInverted() {
		return ToStatisticsResponse(invoicing.ComputeStatistics(nil)), nil
	}
	invoices, err := s.invoices.FindInRange(ctx, dateRange)
	if err != nil {
		return nil, err
	}
	return ToStatisticsResponse(invoicing.ComputeStatistics(invoices)), nil
}

func (s *QueryService) customerInvoices(ctx context.Context, actor identity.Actor, capability identity.Capability, customerID uuid.UUID) ([]invoicing.Invoice, error) {
	if err := identity.Guard(s.policy, actor, capability); err != nil {
		return nil, err
	}
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.invoices.FindByCustomer(ctx, customerID)
}
