// Package testutil provides database, fixture and HTTP helpers shared by
// the billing tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/infrastructure/persistence/models"
	"github.com/invoicing/backend/internal/infrastructure/persistence/sqlitedriver"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a PostgreSQL-dialect GORM handle backed by sqlmock.
// The connection is closed when the test ends.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")
	t.Cleanup(func() { _ = mockDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// NewSQLiteDB opens a private in-memory SQLite database with foreign keys
// enforced and the billing schema migrated.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_foreign_keys=1", name, uuid.NewString()[:8])
	db, err := gorm.Open(sqlitedriver.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// SeedUser inserts a user and returns the matching actor
func SeedUser(t *testing.T, db *gorm.DB, username string, superuser bool) identity.Actor {
	t.Helper()

	now := time.Now().UTC()
	m := &models.UserModel{
		BaseModel:   models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Username:    username,
		IsSuperuser: superuser,
		IsActive:    true,
	}
	require.NoError(t, db.Create(m).Error)
	return identity.Actor{ID: m.ID, Username: username, Superuser: superuser, Active: true}
}

// CustomerOption adjusts a seeded customer
type CustomerOption func(*models.CustomerModel)

// WithCustomerName sets the customer name
func WithCustomerName(name string) CustomerOption {
	return func(m *models.CustomerModel) { m.Name = name }
}

// SeedCustomer inserts a valid customer owned by owner
func SeedCustomer(t *testing.T, db *gorm.DB, owner uuid.UUID, email string, opts ...CustomerOption) *models.CustomerModel {
	t.Helper()

	now := time.Now().UTC()
	m := &models.CustomerModel{
		OwnedModel: models.OwnedModel{
			BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			CreatedBy: ownerPtr(owner),
		},
		Name:    "Customer " + email,
		Email:   email,
		Phone:   "5551234567",
		Address: "1 Main Street",
		Sex:     invoicing.SexFemale,
		City:    "Springfield",
		ZipCode: "12345",
	}
	for _, opt := range opts {
		opt(m)
	}
	require.NoError(t, db.Omit("Creator", "Invoices").Create(m).Error)
	return m
}

// Line is a seeded article
type Line struct {
	Name      string
	Quantity  int
	UnitPrice string
}

// InvoiceSeed describes a seeded invoice
type InvoiceSeed struct {
	CustomerID uuid.UUID
	Owner      uuid.UUID
	Paid       bool
	CreatedAt  time.Time
	Lines      []Line
}

// SeedInvoice inserts an invoice with its articles. A zero CreatedAt means now.
func SeedInvoice(t *testing.T, db *gorm.DB, seed InvoiceSeed) *models.InvoiceModel {
	t.Helper()

	created := seed.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	created = created.UTC().Truncate(time.Microsecond)

	m := &models.InvoiceModel{
		OwnedModel: models.OwnedModel{
			BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: created, UpdatedAt: created},
			CreatedBy: ownerPtr(seed.Owner),
		},
		CustomerID:  seed.CustomerID,
		InvoiceType: invoicing.InvoiceTypeReceipt,
		Paid:        seed.Paid,
	}
	total := decimal.Zero
	for i, l := range seed.Lines {
		price := decimal.RequireFromString(l.UnitPrice)
		m.Articles = append(m.Articles, models.ArticleModel{
			BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: created, UpdatedAt: created},
			InvoiceID: m.ID,
			LineNo:    i + 1,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: price,
		})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	m.Total = total

	require.NoError(t, db.Omit("Creator", "Articles").Create(m).Error)
	if len(m.Articles) > 0 {
		require.NoError(t, db.Create(&m.Articles).Error)
	}
	return m
}

func ownerPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// NewTestUUID generates a deterministic UUID from seed
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// ContextWithTimeout creates a context with a timeout for tests.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
