package invoicing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AveragePlaces is the number of decimal places the average invoice value is rounded to
const AveragePlaces = 2

// InvoiceTotal sums quantity times unit price over articles. It is zero for no articles.
func InvoiceTotal(articles []Article) decimal.Decimal {
	total := decimal.Zero
	for _, a := range articles {
		total = total.Add(a.LineTotal())
	}
	return total
}

// CustomerTotal sums the totals of the given invoices
func CustomerTotal(invoices []Invoice) decimal.Decimal {
	total := decimal.Zero
	for i := range invoices {
		total = total.Add(invoices[i].Total())
	}
	return total
}

// PaidCount counts the paid invoices
func PaidCount(invoices []Invoice) int64 {
	var n int64
	for i := range invoices {
		if invoices[i].Paid {
			n++
		}
	}
	return n
}

// Statistics aggregates a set of invoices
type Statistics struct {
	TotalInvoices  int64
	PaidInvoices   int64
	UnpaidInvoices int64
	TotalAmount    decimal.Decimal
	AverageInvoice decimal.Decimal
}

// ComputeStatistics aggregates invoices. The average is the total amount
// divided by the invoice count, rounded half away from zero to two places,
// and zero when there are no invoices.
func ComputeStatistics(invoices []Invoice) Statistics {
	stats := Statistics{
		TotalInvoices:  int64(len(invoices)),
		PaidInvoices:   PaidCount(invoices),
		TotalAmount:    CustomerTotal(invoices),
		AverageInvoice: decimal.Zero,
	}
	stats.UnpaidInvoices = stats.TotalInvoices - stats.PaidInvoices
	if stats.TotalInvoices > 0 {
		stats.AverageInvoice = stats.TotalAmount.DivRound(decimal.NewFromInt(stats.TotalInvoices), AveragePlaces)
	}
	return stats
}

// CustomerSummary aggregates one customer's invoices
type CustomerSummary struct {
	CustomerID     uuid.UUID
	TotalInvoices  int64
	PaidInvoices   int64
	UnpaidInvoices int64
	TotalAmount    decimal.Decimal
}

// SummarizeCustomer aggregates the invoices of customerID
func SummarizeCustomer(customerID uuid.UUID, invoices []Invoice) CustomerSummary {
	stats := ComputeStatistics(invoices)
	return CustomerSummary{
		CustomerID:     customerID,
		TotalInvoices:  stats.TotalInvoices,
		PaidInvoices:   stats.PaidInvoices,
		UnpaidInvoices: stats.UnpaidInvoices,
		TotalAmount:    stats.TotalAmount,
	}
}
