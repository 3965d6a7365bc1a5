package invoicing

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	// MaxArticleNameLength is the longest accepted article name
	MaxArticleNameLength = 255
	// MaxQuantity is the largest quantity the integer column holds
	MaxQuantity = math.MaxInt32
	// MoneyScale is the number of decimal places stored for amounts
	MoneyScale = 2
)

// MoneyLimit is the first amount a numeric(12,2) column cannot hold. Unit
// prices and invoice totals must stay below it.
var MoneyLimit = decimal.New(1, 10)

// HasMoneyScale reports whether d needs no more than MoneyScale decimal
// places. Trailing zeros do not count.
func HasMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// ArticleLine is the input for one invoice line
type ArticleLine struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Violations checks the line rules. Field names are prefixed with prefix,
// e.g. "articles[2]." so nested lines report their position.
func (l ArticleLine) Violations(prefix string) []shared.FieldViolation {
	var v []shared.FieldViolation
	name := shared.CleanText(l.Name)
	if name == "" {
		v = append(v, shared.FieldViolation{Field: prefix + "name", Message: "This field is required"})
	} else if len([]rune(name)) > MaxArticleNameLength {
		v = append(v, shared.FieldViolation{Field: prefix + "name", Message: "Must be at most 255 characters"})
	}
	switch {
	case l.Quantity <= 0:
		v = append(v, shared.FieldViolation{Field: prefix + "quantity", Message: "Must be greater than 0"})
	case l.Quantity > MaxQuantity:
		v = append(v, shared.FieldViolation{Field: prefix + "quantity", Message: fmt.Sprintf("Must be less than or equal to %d", MaxQuantity)})
	}
	switch {
	case l.UnitPrice.IsNegative():
		v = append(v, shared.FieldViolation{Field: prefix + "unit_price", Message: "Must be greater than or equal to 0"})
	case l.UnitPrice.GreaterThanOrEqual(MoneyLimit):
		v = append(v, shared.FieldViolation{Field: prefix + "unit_price", Message: "Must be less than " + MoneyLimit.String()})
	case !HasMoneyScale(l.UnitPrice):
		v = append(v, shared.FieldViolation{Field: prefix + "unit_price", Message: fmt.Sprintf("Must have at most %d decimal places", MoneyScale)})
	}
	return v
}

// Article is one line item of an invoice
type Article struct {
	shared.BaseEntity
	InvoiceID uuid.UUID
	LineNo    int
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// NewArticle creates a line for invoiceID at position lineNo
func NewArticle(invoiceID uuid.UUID, lineNo int, line ArticleLine) (*Article, error) {
	if violations := line.Violations(""); len(violations) > 0 {
		return nil, shared.NewValidationError(violations...)
	}
	return &Article{
		BaseEntity: shared.NewBaseEntity(),
		InvoiceID:  invoiceID,
		LineNo:     lineNo,
		Name:       shared.CleanText(line.Name),
		Quantity:   line.Quantity,
		UnitPrice:  line.UnitPrice,
	}, nil
}

// LineTotal is quantity times unit price. It is never stored.
func (a Article) LineTotal() decimal.Decimal {
	return a.UnitPrice.Mul(decimal.NewFromInt(int64(a.Quantity)))
}

func articlePrefix(i int) string {
	return fmt.Sprintf("articles[%d].", i)
}
