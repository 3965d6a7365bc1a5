package persistence

import (
	"strings"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OwnedBy limits a query to rows created by createdBy. A nil owner leaves the
// query unscoped.
func OwnedBy(table string, createdBy *uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if createdBy == nil {
			return db
		}
		return db.Where(table+".created_by = ?", *createdBy)
	}
}

// NewestFirst orders by creation time descending with the ID as tie-breaker
func NewestFirst(table string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".created_at DESC").Order(table + ".id DESC")
	}
}

// Limited applies the filter's row cap
func Limited(filter shared.ListFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Limit <= 0 {
			return db
		}
		return db.Limit(filter.Limit)
	}
}

// CreatedWithin restricts created_at to an inclusive range
func CreatedWithin(table string, r shared.DateRange) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if r.Start != nil {
			db = db.Where(table+".created_at >= ?", r.Start.UTC())
		}
		if r.End != nil {
			db = db.Where(table+".created_at <= ?", r.End.UTC())
		}
		return db
	}
}

// likePattern escapes LIKE wildcards in term and wraps it for a substring match
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}
