package invoicing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceType classifies an invoice document
type InvoiceType string

const (
	InvoiceTypeReceipt  InvoiceType = "R"
	InvoiceTypeProforma InvoiceType = "P"
	InvoiceTypeInvoice  InvoiceType = "I"
)

// IsValid reports whether t is a known type
func (t InvoiceType) IsValid() bool {
	switch t {
	case InvoiceTypeReceipt, InvoiceTypeProforma, InvoiceTypeInvoice:
		return true
	}
	return false
}

// Label returns the display label
func (t InvoiceType) Label() string {
	switch t {
	case InvoiceTypeReceipt:
		return "Receipt"
	case InvoiceTypeProforma:
		return "Proforma invoice"
	case InvoiceTypeInvoice:
		return "Invoice"
	default:
		return string(t)
	}
}

// MaxCommentsLength is the longest accepted comment text
const MaxCommentsLength = 1000

// Invoice is a billing document for one customer. Its effective total is
// always derived from its articles; StoredTotal is a denormalized copy kept
// for external readers of the table and is never used in computations.
type Invoice struct {
	shared.OwnedAggregateRoot
	CustomerID  uuid.UUID
	Type        InvoiceType
	Paid        bool
	Comments    string
	StoredTotal decimal.Decimal
	Articles    []Article
}

// NewInvoice builds an unpaid invoice with all of its lines. Every header and
// line rule is checked; nothing is returned unless all of them pass.
func NewInvoice(customerID uuid.UUID, invoiceType InvoiceType, comments string, lines []ArticleLine, createdBy uuid.UUID) (*Invoice, error) {
	violations := headerViolations(customerID, invoiceType, comments)
	if len(lines) == 0 {
		violations = append(violations, shared.FieldViolation{Field: "articles", Message: "At least one article is required"})
	}
	for i, line := range lines {
		violations = append(violations, line.Violations(articlePrefix(i))...)
	}
	if len(violations) == 0 {
		violations = totalViolations(linesTotal(lines))
	}
	if len(violations) > 0 {
		return nil, shared.NewValidationError(violations...)
	}

	invoice := &Invoice{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(createdBy),
		CustomerID:         customerID,
		Type:               invoiceType,
		Comments:           comments,
		Articles:           make([]Article, 0, len(lines)),
	}
	for i, line := range lines {
		article, err := NewArticle(invoice.ID, i+1, line)
		if err != nil {
			return nil, err
		}
		article.CreatedAt = invoice.CreatedAt
		article.UpdatedAt = invoice.CreatedAt
		invoice.Articles = append(invoice.Articles, *article)
	}
	invoice.RefreshStoredTotal()
	invoice.RecordEvent(NewInvoiceCreatedEvent(invoice, createdBy))

	return invoice, nil
}

// Total is the sum of the line totals, zero without articles
func (i *Invoice) Total() decimal.Decimal {
	return InvoiceTotal(i.Articles)
}

// RefreshStoredTotal copies the derived total into the stored cache
func (i *Invoice) RefreshStoredTotal() {
	i.StoredTotal = i.Total()
}

// MarkPaid sets the paid flag. The update timestamp moves even when the
// invoice was already paid.
func (i *Invoice) MarkPaid(actorID uuid.UUID) {
	i.setPaid(true, actorID)
}

// MarkUnpaid clears the paid flag, refreshing the update timestamp
func (i *Invoice) MarkUnpaid(actorID uuid.UUID) {
	i.setPaid(false, actorID)
}

func (i *Invoice) setPaid(paid bool, actorID uuid.UUID) {
	previous := i.Paid
	i.Paid = paid
	i.Touch()
	i.RecordEvent(NewInvoicePaidStatusChangedEvent(i, previous, actorID))
}

// UpdateComments replaces the free-text comments
func (i *Invoice) UpdateComments(comments string, actorID uuid.UUID) error {
	if v := commentsViolations(comments); len(v) > 0 {
		return shared.NewValidationError(v...)
	}
	i.Comments = comments
	i.Touch()
	i.RecordEvent(NewInvoiceCommentsUpdatedEvent(i, actorID))
	return nil
}

// AddArticle appends a new line after the existing ones
func (i *Invoice) AddArticle(line ArticleLine, actorID uuid.UUID) (*Article, error) {
	article, err := NewArticle(i.ID, i.nextLineNo(), line)
	if err != nil {
		return nil, err
	}
	if v := totalViolations(i.Total().Add(article.LineTotal())); len(v) > 0 {
		return nil, shared.NewValidationError(v...)
	}
	i.Articles = append(i.Articles, *article)
	i.Touch()
	i.RefreshStoredTotal()
	i.RecordEvent(NewArticleAddedEvent(i, article, actorID))
	return article, nil
}

// RemoveArticle drops the line with the given ID
func (i *Invoice) RemoveArticle(articleID uuid.UUID, actorID uuid.UUID) (*Article, error) {
	for idx := range i.Articles {
		if i.Articles[idx].ID != articleID {
			continue
		}
		removed := i.Articles[idx]
		i.Articles = append(i.Articles[:idx], i.Articles[idx+1:]...)
		i.Touch()
		i.RefreshStoredTotal()
		i.RecordEvent(NewArticleRemovedEvent(i, &removed, actorID))
		return &removed, nil
	}
	return nil, shared.NewNotFoundError(AggregateTypeArticle, articleID)
}

// MarkDeleted records the deletion event
func (i *Invoice) MarkDeleted(actorID uuid.UUID) {
	i.RecordEvent(NewInvoiceDeletedEvent(i, actorID))
}

func (i *Invoice) nextLineNo() int {
	next := 1
	for _, a := range i.Articles {
		if a.LineNo >= next {
			next = a.LineNo + 1
		}
	}
	return next
}

func headerViolations(customerID uuid.UUID, invoiceType InvoiceType, comments string) []shared.FieldViolation {
	var v []shared.FieldViolation
	if customerID == uuid.Nil {
		v = append(v, shared.FieldViolation{Field: "customer_id", Message: "This field is required"})
	}
	if !invoiceType.IsValid() {
		v = append(v, shared.FieldViolation{Field: "invoice_type", Message: "Must be one of: R P I"})
	}
	return append(v, commentsViolations(comments)...)
}

// totalViolations rejects a total the stored total column cannot hold
func totalViolations(total decimal.Decimal) []shared.FieldViolation {
	if total.GreaterThanOrEqual(MoneyLimit) {
		return []shared.FieldViolation{{Field: "articles", Message: "Invoice total must be less than " + MoneyLimit.String()}}
	}
	return nil
}

func linesTotal(lines []ArticleLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func commentsViolations(comments string) []shared.FieldViolation {
	if len([]rune(comments)) > MaxCommentsLength {
		return []shared.FieldViolation{{Field: "comments", Message: "Must be at most 1000 characters"}}
	}
	return nil
}

// NormalizeComments trims surrounding whitespace
func NormalizeComments(comments string) string {
	return strings.TrimSpace(comments)
}
