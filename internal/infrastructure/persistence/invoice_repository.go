package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements invoicing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func withArticles(db *gorm.DB) *gorm.DB {
	return db.Preload("Articles", func(db *gorm.DB) *gorm.DB {
		return db.Order("articles.line_no ASC")
	})
}

// FindByID finds an invoice with its articles
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).Scopes(withArticles).First(&model, "invoices.id = ?", id).Error; err != nil {
		return nil, translateError(err, "invoice", id)
	}
	return model.ToDomain(), nil
}

type invoiceListingRow struct {
	models.InvoiceModel
	CustomerName string
}

// FindAll lists invoices newest first together with their customer names
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.ListFilter) ([]invoicing.InvoiceListing, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Select("invoices.*, customers.name AS customer_name").
		Joins("JOIN customers ON customers.id = invoices.customer_id").
		Scopes(NewestFirst("invoices"), Limited(filter))
	if term := filter.NormalizedSearch(); term != "" {
		pattern := likePattern(term)
		query = query.Where(
			"LOWER(customers.name) LIKE ? ESCAPE '\\' OR LOWER(CAST(invoices.id AS TEXT)) LIKE ? ESCAPE '\\'",
			pattern, pattern,
		)
	}

	var rows []invoiceListingRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	if err := r.attachArticles(ctx, rowsModels(rows)); err != nil {
		return nil, err
	}

	listings := make([]invoicing.InvoiceListing, len(rows))
	for i := range rows {
		listings[i] = invoicing.InvoiceListing{
			Invoice:      *rows[i].InvoiceModel.ToDomain(),
			CustomerName: rows[i].CustomerName,
		}
	}
	return listings, nil
}

func rowsModels(rows []invoiceListingRow) []*models.InvoiceModel {
	out := make([]*models.InvoiceModel, len(rows))
	for i := range rows {
		out[i] = &rows[i].InvoiceModel
	}
	return out
}

// attachArticles loads the articles of every invoice in one query
func (r *GormInvoiceRepository) attachArticles(ctx context.Context, invoices []*models.InvoiceModel) error {
	if len(invoices) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(invoices))
	byID := make(map[uuid.UUID]*models.InvoiceModel, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
		byID[inv.ID] = inv
		inv.Articles = []models.ArticleModel{}
	}

	var articles []models.ArticleModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id IN ?", ids).
		Order("invoice_id").Order("line_no ASC").
		Find(&articles).Error; err != nil {
		return err
	}
	for _, a := range articles {
		if inv, ok := byID[a.InvoiceID]; ok {
			inv.Articles = append(inv.Articles, a)
		}
	}
	return nil
}

func (r *GormInvoiceRepository) findMany(query *gorm.DB) ([]invoicing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := query.Scopes(withArticles, NewestFirst("invoices")).Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]invoicing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// FindByCustomer returns every invoice of a customer
func (r *GormInvoiceRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]invoicing.Invoice, error) {
	return r.findMany(r.db.WithContext(ctx).Where("invoices.customer_id = ?", customerID))
}

// FindInRange returns invoices created inside the inclusive range
func (r *GormInvoiceRepository) FindInRange(ctx context.Context, dateRange shared.DateRange) ([]invoicing.Invoice, error) {
	return r.findMany(r.db.WithContext(ctx).Scopes(CreatedWithin("invoices", dateRange)))
}

// CountByCustomer counts the invoices of a customer
func (r *GormInvoiceRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

// CountPaidByCustomer counts the paid invoices of a customer
func (r *GormInvoiceRepository) CountPaidByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("customer_id = ? AND paid = ?", customerID, true).
		Count(&count).Error
	return count, err
}

// Create inserts the invoice header
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *invoicing.Invoice) error {
	err := r.db.WithContext(ctx).
		Omit("Creator", "Articles").
		Create(models.InvoiceModelFromDomain(invoice)).Error
	return translateError(err, "customer", invoice.CustomerID)
}

// Update writes the mutable header columns
func (r *GormInvoiceRepository) Update(ctx context.Context, invoice *invoicing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	result := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("id = ?", invoice.ID).
		Select("invoice_type", "paid", "comments", "total", "updated_at").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, "invoice", invoice.ID)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("invoice", invoice.ID)
	}
	return nil
}

// SetPaidStatus selects the matching invoices first so the updated IDs can be
// reported, then updates them in one statement. Callers run it inside a
// transaction.
func (r *GormInvoiceRepository) SetPaidStatus(ctx context.Context, ids []uuid.UUID, createdBy *uuid.UUID, paid bool, at time.Time) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}

	var matched []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Scopes(OwnedBy("invoices", createdBy)).
		Where("invoices.id IN ?", ids).
		Order("invoices.created_at DESC").
		Pluck("invoices.id", &matched).Error; err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return []uuid.UUID{}, nil
	}

	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("id IN ?", matched).
		Updates(map[string]any{"paid": paid, "updated_at": at}).Error; err != nil {
		return nil, err
	}
	return matched, nil
}

// Touch refreshes the cached total and the update timestamp
func (r *GormInvoiceRepository) Touch(ctx context.Context, id uuid.UUID, storedTotal decimal.Decimal, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"total": storedTotal, "updated_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("invoice", id)
	}
	return nil
}

// Delete removes an invoice; its articles go with it
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.InvoiceModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "invoice", id)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("invoice", id)
	}
	return nil
}

var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)
