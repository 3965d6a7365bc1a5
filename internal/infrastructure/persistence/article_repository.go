package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormArticleRepository implements invoicing.ArticleRepository using GORM
type GormArticleRepository struct {
	db *gorm.DB
}

// NewGormArticleRepository creates a new GormArticleRepository
func NewGormArticleRepository(db *gorm.DB) *GormArticleRepository {
	return &GormArticleRepository{db: db}
}

// FindByID finds an article by ID
func (r *GormArticleRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Article, error) {
	var model models.ArticleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "article", id)
	}
	return model.ToDomain(), nil
}

// FindByInvoice returns the lines of an invoice in line order
func (r *GormArticleRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]invoicing.Article, error) {
	var articleModels []models.ArticleModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("line_no ASC").
		Find(&articleModels).Error; err != nil {
		return nil, err
	}
	articles := make([]invoicing.Article, len(articleModels))
	for i := range articleModels {
		articles[i] = *articleModels[i].ToDomain()
	}
	return articles, nil
}

// CreateBatch inserts the given articles in one statement
func (r *GormArticleRepository) CreateBatch(ctx context.Context, articles []invoicing.Article) error {
	if len(articles) == 0 {
		return nil
	}
	articleModels := make([]*models.ArticleModel, len(articles))
	for i := range articles {
		articleModels[i] = models.ArticleModelFromDomain(&articles[i])
	}
	err := r.db.WithContext(ctx).Create(articleModels).Error
	return translateError(err, "invoice", articles[0].InvoiceID)
}

// Delete removes a single article
func (r *GormArticleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ArticleModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("article", id)
	}
	return nil
}

// DeleteByInvoice removes every line of an invoice
func (r *GormArticleRepository) DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.ArticleModel{}, "invoice_id = ?", invoiceID)
	return result.RowsAffected, result.Error
}

var _ invoicing.ArticleRepository = (*GormArticleRepository)(nil)
