package models

import (
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer aggregate
type CustomerModel struct {
	OwnedModel
	Name     string         `gorm:"type:varchar(132);not null"`
	Email    string         `gorm:"type:varchar(254);not null;uniqueIndex:idx_customers_email"`
	Phone    string         `gorm:"type:varchar(20);not null"`
	Address  string         `gorm:"type:varchar(255);not null;default:''"`
	Sex      invoicing.Sex  `gorm:"type:varchar(1);not null"`
	Age      *int           `gorm:"type:smallint"`
	City     string         `gorm:"type:varchar(64);not null;default:''"`
	ZipCode  string         `gorm:"type:varchar(16);not null;default:''"`
	Creator  *UserModel     `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL"`
	Invoices []InvoiceModel `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *invoicing.Customer {
	return &invoicing.Customer{
		OwnedAggregateRoot: m.ToDomainOwnedAggregateRoot(),
		Name:               m.Name,
		Email:              m.Email,
		Phone:              m.Phone,
		Address:            m.Address,
		Sex:                m.Sex,
		Age:                m.Age,
		City:               m.City,
		ZipCode:            m.ZipCode,
	}
}

// FromDomain populates the persistence model from a domain Customer
func (m *CustomerModel) FromDomain(c *invoicing.Customer) {
	m.FromDomainOwnedAggregateRoot(c.OwnedAggregateRoot)
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.Address = c.Address
	m.Sex = c.Sex
	m.Age = c.Age
	m.City = c.City
	m.ZipCode = c.ZipCode
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer
func CustomerModelFromDomain(c *invoicing.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// InvoiceModel is the persistence model for the Invoice aggregate header.
// Total is a cached copy of the line sum and is never read back as a source of truth.
type InvoiceModel struct {
	OwnedModel
	CustomerID  uuid.UUID             `gorm:"type:uuid;not null;index"`
	InvoiceType invoicing.InvoiceType `gorm:"type:varchar(1);not null;default:'R'"`
	Paid        bool                  `gorm:"not null;default:false;index"`
	Comments    string                `gorm:"type:varchar(1000);not null;default:''"`
	Total       decimal.Decimal       `gorm:"type:numeric(12,2);not null;default:0"`
	Creator     *UserModel            `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL"`
	Articles    []ArticleModel        `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model and any preloaded articles to a domain Invoice
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	articles := make([]invoicing.Article, len(m.Articles))
	for i := range m.Articles {
		articles[i] = *m.Articles[i].ToDomain()
	}
	return &invoicing.Invoice{
		OwnedAggregateRoot: m.ToDomainOwnedAggregateRoot(),
		CustomerID:         m.CustomerID,
		Type:               m.InvoiceType,
		Paid:               m.Paid,
		Comments:           m.Comments,
		StoredTotal:        m.Total,
		Articles:           articles,
	}
}

// FromDomain populates the header fields from a domain Invoice. Articles are
// persisted separately.
func (m *InvoiceModel) FromDomain(inv *invoicing.Invoice) {
	m.FromDomainOwnedAggregateRoot(inv.OwnedAggregateRoot)
	m.CustomerID = inv.CustomerID
	m.InvoiceType = inv.Type
	m.Paid = inv.Paid
	m.Comments = inv.Comments
	m.Total = inv.StoredTotal
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// ArticleModel is the persistence model for invoice lines
type ArticleModel struct {
	BaseModel
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_articles_invoice_line,priority:1"`
	LineNo    int             `gorm:"not null;uniqueIndex:idx_articles_invoice_line,priority:2"`
	Name      string          `gorm:"type:varchar(255);not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

// TableName returns the table name for GORM
func (ArticleModel) TableName() string {
	return "articles"
}

// ToDomain converts the persistence model to a domain Article
func (m *ArticleModel) ToDomain() *invoicing.Article {
	return &invoicing.Article{
		BaseEntity: m.BaseModel.ToDomain(),
		InvoiceID:  m.InvoiceID,
		LineNo:     m.LineNo,
		Name:       m.Name,
		Quantity:   m.Quantity,
		UnitPrice:  m.UnitPrice,
	}
}

// ArticleModelFromDomain creates a new persistence model from a domain Article
func ArticleModelFromDomain(a *invoicing.Article) *ArticleModel {
	m := &ArticleModel{
		InvoiceID: a.InvoiceID,
		LineNo:    a.LineNo,
		Name:      a.Name,
		Quantity:  a.Quantity,
		UnitPrice: a.UnitPrice,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}

// All returns every model in dependency order, for AutoMigrate
func All() []any {
	return []any{&UserModel{}, &CustomerModel{}, &InvoiceModel{}, &ArticleModel{}}
}
