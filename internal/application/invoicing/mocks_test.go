package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockCustomerRepository struct {
	mock.Mock
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Customer), args.Error(1)
}

func (m *mockCustomerRepository) FindAll(ctx context.Context, filter shared.ListFilter) ([]invoicing.Customer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicing.Customer), args.Error(1)
}

func (m *mockCustomerRepository) ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockCustomerRepository) Create(ctx context.Context, customer *invoicing.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *mockCustomerRepository) Update(ctx context.Context, customer *invoicing.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *mockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockInvoiceRepository struct {
	mock.Mock
}

func (m *mockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) FindAll(ctx context.Context, filter shared.ListFilter) ([]invoicing.InvoiceListing, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicing.InvoiceListing), args.Error(1)
}

func (m *mockInvoiceRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]invoicing.Invoice, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) FindInRange(ctx context.Context, dateRange shared.DateRange) ([]invoicing.Invoice, error) {
	args := m.Called(ctx, dateRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockInvoiceRepository) CountPaidByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockInvoiceRepository) Create(ctx context.Context, invoice *invoicing.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *mockInvoiceRepository) Update(ctx context.Context, invoice *invoicing.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *mockInvoiceRepository) SetPaidStatus(ctx context.Context, ids []uuid.UUID, createdBy *uuid.UUID, paid bool, at time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, ids, createdBy, paid, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *mockInvoiceRepository) Touch(ctx context.Context, id uuid.UUID, storedTotal decimal.Decimal, at time.Time) error {
	return m.Called(ctx, id, storedTotal, at).Error(0)
}

func (m *mockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockArticleRepository struct {
	mock.Mock
}

func (m *mockArticleRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Article, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Article), args.Error(1)
}

func (m *mockArticleRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]invoicing.Article, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicing.Article), args.Error(1)
}

func (m *mockArticleRepository) CreateBatch(ctx context.Context, articles []invoicing.Article) error {
	return m.Called(ctx, articles).Error(0)
}

func (m *mockArticleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockArticleRepository) DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).(int64), args.Error(1)
}

// mockScope runs fn directly against the mocked repositories
type mockScope struct {
	customers *mockCustomerRepository
	invoices  *mockInvoiceRepository
	articles  *mockArticleRepository
	err       error
}

func newMockScope() *mockScope {
	return &mockScope{
		customers: new(mockCustomerRepository),
		invoices:  new(mockInvoiceRepository),
		articles:  new(mockArticleRepository),
	}
}

func (s *mockScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(s)
}

func (s *mockScope) Customers() invoicing.CustomerRepository { return s.customers }
func (s *mockScope) Invoices() invoicing.InvoiceRepository   { return s.invoices }
func (s *mockScope) Articles() invoicing.ArticleRepository   { return s.articles }
