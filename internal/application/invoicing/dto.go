package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places money is rendered with
const MoneyPlaces = invoicing.MoneyScale

// CustomerRequest carries the editable customer fields
type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=132"`
	Email   string `json:"email" validate:"required,max=254,customer_email"`
	Phone   string `json:"phone" validate:"required,min=7,max=20"`
	Address string `json:"address" validate:"required,max=255"`
	Sex     string `json:"sex" validate:"required,oneof=M F"`
	Age     *int   `json:"age" validate:"omitempty,gte=0,lte=150"`
	City    string `json:"city" validate:"required,max=64"`
	ZipCode string `json:"zip_code" validate:"required,max=16"`
}

// Profile converts the request into a normalized domain profile
func (r CustomerRequest) Profile() invoicing.CustomerProfile {
	return invoicing.CustomerProfile{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Address: r.Address,
		Sex:     invoicing.Sex(r.Sex),
		Age:     r.Age,
		City:    r.City,
		ZipCode: r.ZipCode,
	}.Normalize()
}

// ArticleRequest is one invoice line
type ArticleRequest struct {
	Name      string          `json:"name" validate:"required,max=255"`
	Quantity  int             `json:"quantity" validate:"gt=0,lte=2147483647"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0,lt=10000000000,money_scale"`
}

// Line converts the request into a domain line
func (r ArticleRequest) Line() invoicing.ArticleLine {
	return invoicing.ArticleLine{Name: r.Name, Quantity: r.Quantity, UnitPrice: r.UnitPrice}
}

// CreateInvoiceRequest creates an invoice together with its lines
type CreateInvoiceRequest struct {
	CustomerID  uuid.UUID        `json:"customer_id" validate:"required"`
	InvoiceType string           `json:"invoice_type" validate:"required,oneof=R P I"`
	Comments    string           `json:"comments" validate:"max=1000"`
	Articles    []ArticleRequest `json:"articles" validate:"min=1,dive"`
}

// UpdateCommentsRequest replaces an invoice's comments
type UpdateCommentsRequest struct {
	Comments string `json:"comments" validate:"max=1000"`
}

// SetPaidStatusRequest changes the paid flag of one or more invoices
type SetPaidStatusRequest struct {
	IDs  []uuid.UUID `json:"ids"`
	Paid *bool       `json:"paid" validate:"required"`
}

// StatisticsFilter bounds the statistics by creation time, both ends inclusive
type StatisticsFilter struct {
	Start *time.Time
	End   *time.Time
}

// ArticleResponse is an invoice line in API responses
type ArticleResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	Total     string    `json:"total"`
}

// InvoiceResponse is an invoice in list responses
type InvoiceResponse struct {
	ID                 uuid.UUID `json:"id"`
	CustomerID         uuid.UUID `json:"customer_id"`
	CustomerName       string    `json:"customer_name"`
	InvoiceDateTime    time.Time `json:"invoice_date_time"`
	Total              string    `json:"total"`
	Paid               bool      `json:"paid"`
	InvoiceType        string    `json:"invoice_type"`
	InvoiceTypeDisplay string    `json:"invoice_type_display"`
	Comments           string    `json:"comments"`
}

// InvoiceDetailResponse is an invoice with its lines
type InvoiceDetailResponse struct {
	InvoiceResponse
	Articles []ArticleResponse `json:"articles"`
}

// CustomerResponse is a customer in API responses
type CustomerResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Sex         string    `json:"sex"`
	Age         *int      `json:"age"`
	City        string    `json:"city"`
	ZipCode     string    `json:"zip_code"`
	CreatedDate time.Time `json:"created_date"`
}

// StatisticsResponse summarizes invoices over a period
type StatisticsResponse struct {
	TotalInvoices  int64  `json:"total_invoices"`
	PaidInvoices   int64  `json:"paid_invoices"`
	UnpaidInvoices int64  `json:"unpaid_invoices"`
	TotalAmount    string `json:"total_amount"`
	AverageInvoice string `json:"average_invoice"`
}

// CustomerSummaryResponse summarizes one customer's invoices
type CustomerSummaryResponse struct {
	CustomerID     uuid.UUID `json:"customer_id"`
	TotalInvoices  int64     `json:"total_invoices"`
	PaidInvoices   int64     `json:"paid_invoices"`
	UnpaidInvoices int64     `json:"unpaid_invoices"`
	TotalAmount    string    `json:"total_amount"`
}

// SetPaidStatusResponse reports how many invoices a bulk change touched
type SetPaidStatusResponse struct {
	Updated int `json:"updated"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}

// ToArticleResponse converts a domain article
func ToArticleResponse(a *invoicing.Article) ArticleResponse {
	return ArticleResponse{
		ID:        a.ID,
		Name:      a.Name,
		Quantity:  a.Quantity,
		UnitPrice: money(a.UnitPrice),
		Total:     money(a.LineTotal()),
	}
}

// ToInvoiceResponse converts a domain invoice. The total is always derived
// from the articles, never taken from the stored cache.
func ToInvoiceResponse(inv *invoicing.Invoice, customerName string) InvoiceResponse {
	return InvoiceResponse{
		ID:                 inv.ID,
		CustomerID:         inv.CustomerID,
		CustomerName:       customerName,
		InvoiceDateTime:    inv.CreatedAt,
		Total:              money(inv.Total()),
		Paid:               inv.Paid,
		InvoiceType:        string(inv.Type),
		InvoiceTypeDisplay: inv.Type.Label(),
		Comments:           inv.Comments,
	}
}

// ToInvoiceDetailResponse converts a domain invoice with its lines
func ToInvoiceDetailResponse(inv *invoicing.Invoice, customerName string) *InvoiceDetailResponse {
	articles := make([]ArticleResponse, len(inv.Articles))
	for i := range inv.Articles {
		articles[i] = ToArticleResponse(&inv.Articles[i])
	}
	return &InvoiceDetailResponse{
		InvoiceResponse: ToInvoiceResponse(inv, customerName),
		Articles:        articles,
	}
}

// ToCustomerResponse converts a domain customer
func ToCustomerResponse(c *invoicing.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		Sex:         string(c.Sex),
		Age:         c.Age,
		City:        c.City,
		ZipCode:     c.ZipCode,
		CreatedDate: c.CreatedAt,
	}
}

// ToStatisticsResponse converts domain statistics
func ToStatisticsResponse(s invoicing.Statistics) *StatisticsResponse {
	return &StatisticsResponse{
		TotalInvoices:  s.TotalInvoices,
		PaidInvoices:   s.PaidInvoices,
		UnpaidInvoices: s.UnpaidInvoices,
		TotalAmount:    money(s.TotalAmount),
		AverageInvoice: money(s.AverageInvoice),
	}
}

func (r CustomerRequest) normalized() CustomerRequest {
	p := r.Profile()
	r.Name, r.Email, r.Phone = p.Name, p.Email, p.Phone
	r.Address, r.City, r.ZipCode = p.Address, p.City, p.ZipCode
	return r
}
