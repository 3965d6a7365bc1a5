package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements invoicing.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "customer", id)
	}
	return model.ToDomain(), nil
}

// FindAll lists customers newest first
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter shared.ListFilter) ([]invoicing.Customer, error) {
	query := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Scopes(NewestFirst("customers"), Limited(filter))
	if term := filter.NormalizedSearch(); term != "" {
		pattern := likePattern(term)
		query = query.Where(
			"LOWER(customers.name) LIKE ? ESCAPE '\\' OR LOWER(customers.email) LIKE ? ESCAPE '\\' OR customers.phone LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern,
		)
	}

	var customerModels []models.CustomerModel
	if err := query.Find(&customerModels).Error; err != nil {
		return nil, err
	}

	customers := make([]invoicing.Customer, len(customerModels))
	for i := range customerModels {
		customers[i] = *customerModels[i].ToDomain()
	}
	return customers, nil
}

// ExistsByEmail reports whether a customer other than excludeID uses email
func (r *GormCustomerRepository) ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Where("email = ?", invoicing.NormalizeEmail(email))
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a customer
func (r *GormCustomerRepository) Create(ctx context.Context, customer *invoicing.Customer) error {
	err := r.db.WithContext(ctx).Omit("Creator", "Invoices").Create(models.CustomerModelFromDomain(customer)).Error
	return translateCustomerWriteError(err, customer.ID)
}

// Update writes every profile column of an existing customer
func (r *GormCustomerRepository) Update(ctx context.Context, customer *invoicing.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	result := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Where("id = ?", customer.ID).
		Select("name", "email", "phone", "address", "sex", "age", "city", "zip_code", "updated_at").
		Updates(model)
	if result.Error != nil {
		return translateCustomerWriteError(result.Error, customer.ID)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("customer", customer.ID)
	}
	return nil
}

// Delete removes a customer. Invoices referencing it block the delete.
func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CustomerModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "customer", id)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("customer", id)
	}
	return nil
}

var _ invoicing.CustomerRepository = (*GormCustomerRepository)(nil)
