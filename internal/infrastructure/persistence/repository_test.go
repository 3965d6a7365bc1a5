package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	appinvoicing "github.com/invoicing/backend/internal/application/invoicing"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/persistence/models"
	"github.com/invoicing/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCustomer(t *testing.T, email string, owner uuid.UUID) *invoicing.Customer {
	t.Helper()
	c, err := invoicing.NewCustomer(invoicing.CustomerProfile{
		Name:    "Ada Lovelace",
		Email:   email,
		Phone:   "5551234567",
		Address: "12 Analytical Row",
		Sex:     invoicing.SexFemale,
		City:    "London",
		ZipCode: "N1 9GU",
	}, owner)
	require.NoError(t, err)
	return c
}

func TestGormCustomerRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, db, "clerk", false)
	repo := NewGormCustomerRepository(db)

	t.Run("create and find", func(t *testing.T) {
		c := newCustomer(t, "ada@example.com", owner.ID)
		require.NoError(t, repo.Create(ctx, c))

		got, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", got.Email)
		assert.Equal(t, "London", got.City)
		assert.True(t, got.IsOwnedBy(owner.ID))
		assert.Equal(t, time.UTC, got.CreatedAt.Location())
	})

	t.Run("duplicate email is a validation error", func(t *testing.T) {
		err := repo.Create(ctx, newCustomer(t, "ada@example.com", owner.ID))

		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.HasField("email"))
	})

	t.Run("exists by email honours exclusion", func(t *testing.T) {
		c := newCustomer(t, "grace@example.com", owner.ID)
		require.NoError(t, repo.Create(ctx, c))

		exists, err := repo.ExistsByEmail(ctx, "Grace@Example.com", uuid.Nil)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByEmail(ctx, "grace@example.com", c.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("update", func(t *testing.T) {
		c := newCustomer(t, "update@example.com", owner.ID)
		require.NoError(t, repo.Create(ctx, c))

		profile := c.Profile()
		profile.City = "Paris"
		require.NoError(t, c.Update(profile, owner.ID))
		require.NoError(t, repo.Update(ctx, c))

		got, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Paris", got.City)
	})

	t.Run("update unknown", func(t *testing.T) {
		err := repo.Update(ctx, newCustomer(t, "ghost@example.com", owner.ID))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("find unknown", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		var nf *shared.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "customer", nf.Resource)
	})

	t.Run("delete", func(t *testing.T) {
		c := newCustomer(t, "delete@example.com", owner.ID)
		require.NoError(t, repo.Create(ctx, c))

		require.NoError(t, repo.Delete(ctx, c.ID))
		assert.ErrorIs(t, repo.Delete(ctx, c.ID), shared.ErrNotFound)
	})

	t.Run("delete blocked by invoices", func(t *testing.T) {
		c := testutil.SeedCustomer(t, db, owner.ID, "blocked@example.com")
		testutil.SeedInvoice(t, db, testutil.InvoiceSeed{CustomerID: c.ID, Owner: owner.ID, Lines: []testutil.Line{{Name: "x", Quantity: 1, UnitPrice: "1.00"}}})

		require.Error(t, repo.Delete(ctx, c.ID))
		_, err := repo.FindByID(ctx, c.ID)
		assert.NoError(t, err)
	})
}

func TestGormCustomerRepository_FindAll(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormCustomerRepository(db)

	old := testutil.SeedCustomer(t, db, uuid.Nil, "old@example.com", testutil.WithCustomerName("Old Timer"))
	require.NoError(t, db.Model(old).Update("created_at", time.Now().UTC().Add(-time.Hour)).Error)
	testutil.SeedCustomer(t, db, uuid.Nil, "new@example.com", testutil.WithCustomerName("Brand New"))
	testutil.SeedCustomer(t, db, uuid.Nil, "percent@example.com", testutil.WithCustomerName("100% Cotton"))

	all, err := repo.FindAll(ctx, shared.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "old@example.com", all[2].Email)

	limited, err := repo.FindAll(ctx, shared.ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	found, err := repo.FindAll(ctx, shared.ListFilter{Search: "  OLD "})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Old Timer", found[0].Name)

	wildcard, err := repo.FindAll(ctx, shared.ListFilter{Search: "%"})
	require.NoError(t, err)
	require.Len(t, wildcard, 1)
	assert.Equal(t, "100% Cotton", wildcard[0].Name)
}

func TestGormCustomerRepository_FindAll_UnicodeCaseFolding(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormCustomerRepository(db)

	testutil.SeedCustomer(t, db, uuid.Nil, "emile@example.com", testutil.WithCustomerName("ÉMILE Zola"))
	testutil.SeedCustomer(t, db, uuid.Nil, "other@example.com", testutil.WithCustomerName("Emil Other"))

	found, err := repo.FindAll(ctx, shared.ListFilter{Search: "émile"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "ÉMILE Zola", found[0].Name)

	invoices := NewGormInvoiceRepository(db)
	testutil.SeedInvoice(t, db, testutil.InvoiceSeed{CustomerID: found[0].ID})
	listings, err := invoices.FindAll(ctx, shared.ListFilter{Search: "Émile"})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "ÉMILE Zola", listings[0].CustomerName)
}

func TestGormInvoiceRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, db, "owner", false)
	other := testutil.SeedUser(t, db, "other", false)
	customer := testutil.SeedCustomer(t, db, owner.ID, "buyer@example.com", testutil.WithCustomerName("Buyer"))
	invoices := NewGormInvoiceRepository(db)
	articles := NewGormArticleRepository(db)

	t.Run("create header and lines", func(t *testing.T) {
		inv, err := invoicing.NewInvoice(customer.ID, invoicing.InvoiceTypeInvoice, "first", []invoicing.ArticleLine{
			{Name: "Widget", Quantity: 2, UnitPrice: decimal.RequireFromString("10.25")},
			{Name: "Gadget", Quantity: 1, UnitPrice: decimal.RequireFromString("0.50")},
		}, owner.ID)
		require.NoError(t, err)
		require.NoError(t, invoices.Create(ctx, inv))
		require.NoError(t, articles.CreateBatch(ctx, inv.Articles))

		got, err := invoices.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		require.Len(t, got.Articles, 2)
		assert.Equal(t, "Widget", got.Articles[0].Name)
		assert.Equal(t, 2, got.Articles[1].LineNo)
		assert.True(t, got.Total().Equal(decimal.RequireFromString("21.00")))
		assert.Equal(t, invoicing.InvoiceTypeInvoice, got.Type)
		assert.False(t, got.Paid)
	})

	t.Run("create for unknown customer fails", func(t *testing.T) {
		inv, err := invoicing.NewInvoice(uuid.New(), invoicing.InvoiceTypeReceipt, "", []invoicing.ArticleLine{
			{Name: "Widget", Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
		}, owner.ID)
		require.NoError(t, err)
		assert.Error(t, invoices.Create(ctx, inv))
	})

	t.Run("counts", func(t *testing.T) {
		c := testutil.SeedCustomer(t, db, owner.ID, "counts@example.com")
		testutil.SeedInvoice(t, db, testutil.InvoiceSeed{CustomerID: c.ID, Paid: true})
		testutil.SeedInvoice(t, db, testutil.InvoiceSeed{CustomerID: c.ID})

		total, err := invoices.CountByCustomer(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		paid, err := invoices.CountPaidByCustomer(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), paid)
	})

	t.Run("set paid status respects owner scope", func(t *testing.T) {
		c := testutil.SeedCustomer(t, db, owner.ID, "scope@example.com")
		mine := testutil.SeedInvoice(t, db, testutil.InvoiceSeed{CustomerID: c.ID, Owner: owner.ID})
		theirs := testutil.SeedInvoice(t, db, testutil.InvoiceSeed{CustomerID: c.ID, Owner: other.ID})
		at := time.Now().UTC().Add(time.Minute).Truncate(time.Microsecond)

		updated, err := invoices.SetPaidStatus(ctx, []uuid.UUID{mine.ID, theirs.ID, uuid.New()}, &owner.ID, true, at)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{mine.ID}, updated)

		got, err := invoices.FindByID(ctx, mine.ID)
		require.NoError(t, err)
		assert.True(t, got.Paid)
		assert.True(t, got.UpdatedAt.Equal(at))

		untouched, err := invoices.FindByID(ctx, theirs.ID)
		require.NoError(t, err)
		assert.False(t, untouched.Paid)

		all, err := invoices.SetPaidStatus(ctx, []uuid.UUID{mine.ID, theirs.ID}, nil, true, at)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{mine.ID, theirs.ID}, all)

		none, err := invoices.SetPaidStatus(ctx, nil, nil, true, at)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("touch", func(t *testing.T) {
		inv := testutil.SeedInvoice(t, db, testutil.InvoiceSeed{CustomerID: customer.ID})
		at := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)

		require.NoError(t, invoices.Touch(ctx, inv.ID, decimal.RequireFromString("9.99"), at))
		got, err := invoices.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.True(t, got.StoredTotal.Equal(decimal.RequireFromString("9.99")))
		assert.True(t, got.UpdatedAt.Equal(at))

		assert.ErrorIs(t, invoices.Touch(ctx, uuid.New(), decimal.Zero, at), shared.ErrNotFound)
	})

	t.Run("delete cascades to articles", func(t *testing.T) {
		inv := testutil.SeedInvoice(t, db, testutil.InvoiceSeed{
			CustomerID: customer.ID,
			Lines:      []testutil.Line{{Name: "a", Quantity: 1, UnitPrice: "1.00"}, {Name: "b", Quantity: 2, UnitPrice: "2.00"}},
		})

		removed, err := articles.DeleteByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)
		require.NoError(t, invoices.Delete(ctx, inv.ID))

		_, err = invoices.FindByID(ctx, inv.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, invoices.Delete(ctx, inv.ID), shared.ErrNotFound)
	})
}

func TestGormInvoiceRepository_Listing(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormInvoiceRepository(db)

	alice := testutil.SeedCustomer(t, db, uuid.Nil, "alice@example.com", testutil.WithCustomerName("Alice"))
	bob := testutil.SeedCustomer(t, db, uuid.Nil, "bob@example.com", testutil.WithCustomerName("Bob"))
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	first := testutil.SeedInvoice(t, db, testutil.InvoiceSeed{CustomerID: alice.ID, CreatedAt: base, Lines: []testutil.Line{{Name: "x", Quantity: 1, UnitPrice: "5.00"}}})
	second := testutil.SeedInvoice(t, db, testutil.InvoiceSeed{CustomerID: bob.ID, CreatedAt: base.Add(24 * time.Hour)})
	third := testutil.SeedInvoice(t, db, testutil.InvoiceSeed{CustomerID: alice.ID, CreatedAt: base.Add(48 * time.Hour)})

	t.Run("newest first with customer names and lines", func(t *testing.T) {
		listings, err := repo.FindAll(ctx, shared.ListFilter{})
		require.NoError(t, err)
		require.Len(t, listings, 3)
		assert.Equal(t, third.ID, listings[0].Invoice.ID)
		assert.Equal(t, "Bob", listings[1].CustomerName)
		require.Len(t, listings[2].Invoice.Articles, 1)
		assert.NotNil(t, listings[0].Invoice.Articles)
	})

	t.Run("search by customer name", func(t *testing.T) {
		listings, err := repo.FindAll(ctx, shared.ListFilter{Search: "ALI"})
		require.NoError(t, err)
		assert.Len(t, listings, 2)
	})

	t.Run("search by invoice id", func(t *testing.T) {
		listings, err := repo.FindAll(ctx, shared.ListFilter{Search: second.ID.String()[:13]})
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, second.ID, listings[0].Invoice.ID)
	})

	t.Run("limit", func(t *testing.T) {
		listings, err := repo.FindAll(ctx, shared.ListFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, listings, 1)
	})

	t.Run("range is inclusive", func(t *testing.T) {
		start := base
		end := base.Add(24 * time.Hour)
		invoices, err := repo.FindInRange(ctx, shared.DateRange{Start: &start, End: &end})
		require.NoError(t, err)
		require.Len(t, invoices, 2)
		assert.Equal(t, second.ID, invoices[0].ID)
		assert.Equal(t, first.ID, invoices[1].ID)

		open, err := repo.FindInRange(ctx, shared.DateRange{})
		require.NoError(t, err)
		assert.Len(t, open, 3)
	})

	t.Run("by customer", func(t *testing.T) {
		invoices, err := repo.FindByCustomer(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, invoices, 2)
	})
}

func TestGormArticleRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormArticleRepository(db)
	c := testutil.SeedCustomer(t, db, uuid.Nil, "lines@example.com")
	inv := testutil.SeedInvoice(t, db, testutil.InvoiceSeed{CustomerID: c.ID, Lines: []testutil.Line{{Name: "b", Quantity: 1, UnitPrice: "2.00"}, {Name: "a", Quantity: 3, UnitPrice: "1.10"}}})

	lines, err := repo.FindByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "b", lines[0].Name)

	got, err := repo.FindByID(ctx, lines[1].ID)
	require.NoError(t, err)
	assert.True(t, got.LineTotal().Equal(decimal.RequireFromString("3.30")))

	require.NoError(t, repo.Delete(ctx, lines[0].ID))
	assert.ErrorIs(t, repo.Delete(ctx, lines[0].ID), shared.ErrNotFound)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.NoError(t, repo.CreateBatch(ctx, nil))
}

func TestGormUserRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormUserRepository(db)

	user := &identity.User{BaseEntity: shared.NewBaseEntity(), Username: "admin", IsSuperuser: true, IsActive: true}
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.FindByUsername(ctx, " admin ")
	require.NoError(t, err)
	assert.True(t, got.IsSuperuser)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", byID.Username)

	inactive := &identity.User{BaseEntity: shared.NewBaseEntity(), Username: "inactive", IsActive: false}
	require.NoError(t, repo.Create(ctx, inactive))
	got, err = repo.FindByID(ctx, inactive.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	dup := &identity.User{BaseEntity: shared.NewBaseEntity(), Username: "admin", IsActive: true}
	var verr *shared.ValidationError
	assert.ErrorAs(t, repo.Create(ctx, dup), &verr)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormTransactionScope(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	scope := NewGormTransactionScope(db)
	c := testutil.SeedCustomer(t, db, uuid.Nil, "tx@example.com")

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		inv, err := invoicing.NewInvoice(c.ID, invoicing.InvoiceTypeReceipt, "", []invoicing.ArticleLine{
			{Name: "Widget", Quantity: 1, UnitPrice: decimal.NewFromInt(3)},
		}, uuid.Nil)
		require.NoError(t, err)

		err = scope.Execute(ctx, func(repos appinvoicing.TransactionalRepositories) error {
			if err := repos.Invoices().Create(ctx, inv); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var count int64
		require.NoError(t, db.Model(&models.InvoiceModel{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("commits on success", func(t *testing.T) {
		inv, err := invoicing.NewInvoice(c.ID, invoicing.InvoiceTypeReceipt, "", []invoicing.ArticleLine{
			{Name: "Widget", Quantity: 1, UnitPrice: decimal.NewFromInt(3)},
		}, uuid.Nil)
		require.NoError(t, err)

		err = scope.Execute(ctx, func(repos appinvoicing.TransactionalRepositories) error {
			if err := repos.Invoices().Create(ctx, inv); err != nil {
				return err
			}
			return repos.Articles().CreateBatch(ctx, inv.Articles)
		})
		require.NoError(t, err)

		got, err := NewGormInvoiceRepository(db).FindByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.Len(t, got.Articles, 1)
	})
}
