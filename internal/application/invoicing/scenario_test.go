package invoicing_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appinvoicing "github.com/invoicing/backend/internal/application/invoicing"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/event"
	"github.com/invoicing/backend/internal/infrastructure/persistence"
	"github.com/invoicing/backend/internal/infrastructure/persistence/models"
	"github.com/invoicing/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type billing struct {
	db        *gorm.DB
	customers *appinvoicing.CustomerService
	lifecycle *appinvoicing.LifecycleService
	queries   *appinvoicing.QueryService
	events    *testutil.MockEventHandler
	admin     identity.Actor
	clerk     identity.Actor
}

func newBilling(t *testing.T) *billing {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	log := zap.NewNop()

	customerRepo := persistence.NewGormCustomerRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	articleRepo := persistence.NewGormArticleRepository(db)

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(appinvoicing.NewInvoiceTouchHandler(invoiceRepo, articleRepo, log))
	recorder := testutil.NewMockEventHandler()
	bus.Subscribe(recorder)

	scope := persistence.NewGormTransactionScope(db)
	policy := identity.DefaultPolicy()
	validator := appinvoicing.NewValidator()

	return &billing{
		db:        db,
		customers: appinvoicing.NewCustomerService(scope, policy, validator, bus, log),
		lifecycle: appinvoicing.NewLifecycleService(scope, policy, validator, bus, log),
		queries:   appinvoicing.NewQueryService(customerRepo, invoiceRepo, policy, 0),
		events:    recorder,
		admin:     testutil.SeedUser(t, db, "admin", true),
		clerk:     testutil.SeedUser(t, db, "clerk", false),
	}
}

func (b *billing) eventTypes() []string {
	handled := b.events.Handled()
	out := make([]string, len(handled))
	for i, e := range handled {
		out[i] = e.EventType()
	}
	return out
}

func customerRequest(email string) appinvoicing.CustomerRequest {
	return appinvoicing.CustomerRequest{
		Name:    "Grace Hopper",
		Email:   email,
		Phone:   "5559876543",
		Address: "1 Harbor Rd",
		Sex:     "F",
		City:    "Arlington",
		ZipCode: "22201",
	}
}

func invoiceRequest(customerID uuid.UUID, prices ...string) appinvoicing.CreateInvoiceRequest {
	req := appinvoicing.CreateInvoiceRequest{CustomerID: customerID, InvoiceType: "I"}
	for _, p := range prices {
		req.Articles = append(req.Articles, appinvoicing.ArticleRequest{
			Name:      "Consulting",
			Quantity:  2,
			UnitPrice: decimal.RequireFromString(p),
		})
	}
	return req
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestCustomerService_EmailUniqueness(t *testing.T) {
	ctx := context.Background()
	b := newBilling(t)

	created, err := b.customers.Create(ctx, b.admin, customerRequest("grace@navy.mil"))
	require.NoError(t, err)
	assert.Equal(t, "grace@navy.mil", created.Email)

	_, err = b.customers.Create(ctx, b.admin, customerRequest("  GRACE@navy.mil"))
	var ve *shared.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.HasField("email"))

	// keeping one's own email is fine
	req := customerRequest("grace@navy.mil")
	req.City = "Washington"
	updated, err := b.customers.Update(ctx, b.admin, created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Washington", updated.City)

	other, err := b.customers.Create(ctx, b.admin, customerRequest("amazing@navy.mil"))
	require.NoError(t, err)
	_, err = b.customers.Update(ctx, b.admin, other.ID, customerRequest("grace@navy.mil"))
	require.ErrorAs(t, err, &ve)

	_, err = b.customers.Update(ctx, b.admin, uuid.New(), customerRequest("new@navy.mil"))
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.Equal(t, []string{
		invoicing.EventTypeCustomerCreated,
		invoicing.EventTypeCustomerUpdated,
		invoicing.EventTypeCustomerCreated,
	}, b.eventTypes())
}

func TestCustomerService_StaffCannotManage(t *testing.T) {
	b := newBilling(t)
	_, err := b.customers.Create(context.Background(), b.clerk, customerRequest("x@example.com"))
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Zero(t, countRows(t, b.db, &models.CustomerModel{}))
}

func TestLifecycle_CreateInvoiceIsAtomic(t *testing.T) {
	ctx := context.Background()
	b := newBilling(t)
	customer := testutil.SeedCustomer(t, b.db, b.admin.ID, "atomic@example.com")

	resp, err := b.lifecycle.CreateInvoice(ctx, b.admin, invoiceRequest(customer.ID, "10.00", "0.25"))
	require.NoError(t, err)
	assert.Equal(t, "20.50", resp.Total)
	assert.False(t, resp.Paid)
	require.Len(t, resp.Articles, 2)
	assert.Equal(t, int64(2), countRows(t, b.db, &models.ArticleModel{}))

	var stored models.InvoiceModel
	require.NoError(t, b.db.First(&stored, "id = ?", resp.ID).Error)
	assert.Equal(t, "20.50", stored.Total.StringFixed(2))

	// one bad line rejects the whole invoice
	bad := invoiceRequest(customer.ID, "1.00", "-1.00")
	_, err = b.lifecycle.CreateInvoice(ctx, b.admin, bad)
	var ve *shared.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.HasField("articles[1].unit_price"))

	_, err = b.lifecycle.CreateInvoice(ctx, b.admin, invoiceRequest(customer.ID))
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.HasField("articles"))

	_, err = b.lifecycle.CreateInvoice(ctx, b.admin, invoiceRequest(uuid.New(), "5.00"))
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.Equal(t, int64(1), countRows(t, b.db, &models.InvoiceModel{}))
	assert.Equal(t, int64(2), countRows(t, b.db, &models.ArticleModel{}))
}

func TestLifecycle_MarkPaidIsIdempotentButRefreshes(t *testing.T) {
	ctx := context.Background()
	b := newBilling(t)
	customer := testutil.SeedCustomer(t, b.db, b.admin.ID, "paid@example.com")
	inv := testutil.SeedInvoice(t, b.db, testutil.InvoiceSeed{
		CustomerID: customer.ID,
		Owner:      b.clerk.ID,
		Lines:      []testutil.Line{{Name: "a", Quantity: 1, UnitPrice: "9.99"}},
	})

	first, err := b.lifecycle.MarkPaid(ctx, b.clerk, inv.ID)
	require.NoError(t, err)
	assert.True(t, first.Paid)

	var afterFirst models.InvoiceModel
	require.NoError(t, b.db.First(&afterFirst, "id = ?", inv.ID).Error)

	time.Sleep(5 * time.Millisecond)
	second, err := b.lifecycle.MarkPaid(ctx, b.clerk, inv.ID)
	require.NoError(t, err)
	assert.True(t, second.Paid)

	var afterSecond models.InvoiceModel
	require.NoError(t, b.db.First(&afterSecond, "id = ?", inv.ID).Error)
	assert.True(t, afterSecond.Paid)
	assert.True(t, afterSecond.UpdatedAt.After(afterFirst.UpdatedAt))

	unpaid, err := b.lifecycle.MarkUnpaid(ctx, b.clerk, inv.ID)
	require.NoError(t, err)
	assert.False(t, unpaid.Paid)

	_, err = b.lifecycle.MarkPaid(ctx, b.clerk, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLifecycle_BulkSetPaidStatusScoping(t *testing.T) {
	ctx := context.Background()
	b := newBilling(t)
	customer := testutil.SeedCustomer(t, b.db, b.admin.ID, "bulk@example.com")
	line := []testutil.Line{{Name: "a", Quantity: 1, UnitPrice: "1.00"}}
	own1 := testutil.SeedInvoice(t, b.db, testutil.InvoiceSeed{CustomerID: customer.ID, Owner: b.clerk.ID, Lines: line})
	own2 := testutil.SeedInvoice(t, b.db, testutil.InvoiceSeed{CustomerID: customer.ID, Owner: b.clerk.ID, Lines: line})
	foreign := testutil.SeedInvoice(t, b.db, testutil.InvoiceSeed{CustomerID: customer.ID, Owner: b.admin.ID, Lines: line})

	n, err := b.lifecycle.BulkSetPaidStatus(ctx, b.clerk, []uuid.UUID{own1.ID, own2.ID, foreign.ID, uuid.New()}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	paidCount, err := b.queries.CustomerPaidCount(ctx, b.clerk, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), paidCount)

	n, err = b.lifecycle.BulkSetPaidStatus(ctx, b.admin, []uuid.UUID{own1.ID, foreign.ID}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = b.lifecycle.BulkSetPaidStatus(ctx, b.clerk, []uuid.UUID{}, true)
	require.NoError(t, err)
	assert.Zero(t, n)

	var stillPaid models.InvoiceModel
	require.NoError(t, b.db.First(&stillPaid, "id = ?", own2.ID).Error)
	assert.True(t, stillPaid.Paid)
}

func TestLifecycle_DeleteCustomerAndInvoice(t *testing.T) {
	ctx := context.Background()
	b := newBilling(t)
	customer := testutil.SeedCustomer(t, b.db, b.admin.ID, "delete@example.com")
	inv := testutil.SeedInvoice(t, b.db, testutil.InvoiceSeed{
		CustomerID: customer.ID,
		Owner:      b.admin.ID,
		Lines: []testutil.Line{
			{Name: "a", Quantity: 1, UnitPrice: "1.00"},
			{Name: "b", Quantity: 3, UnitPrice: "2.00"},
		},
	})

	err := b.lifecycle.DeleteCustomer(ctx, b.admin, customer.ID)
	var integrityErr *shared.ReferentialIntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, int64(1), integrityErr.Count)
	assert.Equal(t, int64(1), countRows(t, b.db, &models.CustomerModel{}))

	require.NoError(t, b.lifecycle.DeleteInvoice(ctx, b.admin, inv.ID))
	assert.Zero(t, countRows(t, b.db, &models.InvoiceModel{}))
	assert.Zero(t, countRows(t, b.db, &models.ArticleModel{}))

	require.NoError(t, b.lifecycle.DeleteCustomer(ctx, b.admin, customer.ID))
	assert.Zero(t, countRows(t, b.db, &models.CustomerModel{}))

	assert.ErrorIs(t, b.lifecycle.DeleteCustomer(ctx, b.admin, customer.ID), shared.ErrNotFound)
	assert.ErrorIs(t, b.lifecycle.DeleteInvoice(ctx, b.admin, inv.ID), shared.ErrNotFound)
	assert.Equal(t, []string{invoicing.EventTypeInvoiceDeleted, invoicing.EventTypeCustomerDeleted}, b.eventTypes())
}

func TestLifecycle_ArticleChangesTouchTheInvoice(t *testing.T) {
	ctx := context.Background()
	b := newBilling(t)
	customer := testutil.SeedCustomer(t, b.db, b.admin.ID, "touch@example.com")
	created, err := b.lifecycle.CreateInvoice(ctx, b.admin, invoiceRequest(customer.ID, "5.00"))
	require.NoError(t, err)

	var before models.InvoiceModel
	require.NoError(t, b.db.First(&before, "id = ?", created.ID).Error)

	time.Sleep(5 * time.Millisecond)
	added, err := b.lifecycle.AddArticle(ctx, b.admin, created.ID, appinvoicing.ArticleRequest{
		Name: "Travel", Quantity: 1, UnitPrice: decimal.RequireFromString("2.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2.50", added.Total)

	var after models.InvoiceModel
	require.NoError(t, b.db.First(&after, "id = ?", created.ID).Error)
	assert.Equal(t, "12.50", after.Total.StringFixed(2))
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	require.NoError(t, b.lifecycle.RemoveArticle(ctx, b.admin, added.ID))
	require.NoError(t, b.db.First(&after, "id = ?", created.ID).Error)
	assert.Equal(t, "10.00", after.Total.StringFixed(2))

	total, err := b.queries.InvoiceTotal(ctx, b.clerk, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.00", total.StringFixed(2))

	assert.ErrorIs(t, b.lifecycle.RemoveArticle(ctx, b.admin, uuid.New()), shared.ErrNotFound)
}

func TestLifecycle_UpdateComments(t *testing.T) {
	ctx := context.Background()
	b := newBilling(t)
	customer := testutil.SeedCustomer(t, b.db, b.admin.ID, "comments@example.com")
	created, err := b.lifecycle.CreateInvoice(ctx, b.admin, invoiceRequest(customer.ID, "1.00"))
	require.NoError(t, err)

	resp, err := b.lifecycle.UpdateComments(ctx, b.admin, created.ID, appinvoicing.UpdateCommentsRequest{Comments: "  net 30  "})
	require.NoError(t, err)
	assert.Equal(t, "net 30", resp.Comments)

	got, err := b.queries.GetInvoice(ctx, b.clerk, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "net 30", got.Comments)
}

func TestQueries_StatisticsRangeIsInclusive(t *testing.T) {
	ctx := context.Background()
	b := newBilling(t)
	customer := testutil.SeedCustomer(t, b.db, b.admin.ID, "stats@example.com")
	jan1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jan15 := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	feb1 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	for _, seed := range []testutil.InvoiceSeed{
		{CreatedAt: jan1, Paid: true, Lines: []testutil.Line{{Name: "a", Quantity: 1, UnitPrice: "100.00"}}},
		{CreatedAt: jan15, Lines: []testutil.Line{{Name: "b", Quantity: 2, UnitPrice: "25.00"}}},
		{CreatedAt: feb1, Lines: []testutil.Line{{Name: "c", Quantity: 1, UnitPrice: "1.00"}}},
	} {
		seed.CustomerID = customer.ID
		seed.Owner = b.admin.ID
		testutil.SeedInvoice(t, b.db, seed)
	}

	stats, err := b.queries.InvoiceStatistics(ctx, b.clerk, appinvoicing.StatisticsFilter{Start: &jan1, End: &jan15})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalInvoices)
	assert.Equal(t, int64(1), stats.PaidInvoices)
	assert.Equal(t, "150.00", stats.TotalAmount)
	assert.Equal(t, "75.00", stats.AverageInvoice)

	all, err := b.queries.InvoiceStatistics(ctx, b.clerk, appinvoicing.StatisticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalInvoices)
	assert.Equal(t, "50.33", all.AverageInvoice)

	summary, err := b.queries.CustomerSummary(ctx, b.clerk, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "151.00", summary.TotalAmount)
	assert.Equal(t, int64(2), summary.UnpaidInvoices)

	list, err := b.queries.ListInvoices(ctx, b.clerk, "grace")
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = b.queries.ListInvoices(ctx, b.clerk, "")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, feb1.Equal(list[0].InvoiceDateTime))
}
