package invoicing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LifecycleService owns every invoice mutation. Each operation checks the
// actor against the policy, runs in one transaction and publishes its domain
// events once the transaction has committed.
type LifecycleService struct {
	scope     TransactionScope
	policy    identity.Policy
	validator *Validator
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(scope TransactionScope, policy identity.Policy, validator *Validator, publisher shared.EventPublisher, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{
		scope:     scope,
		policy:    policy,
		validator: validator,
		publisher: publisher,
		logger:    logger.Named("invoice_lifecycle"),
	}
}

// CreateInvoice validates the header and every line, then stores the invoice
// and its articles atomically. Any violation fails the whole call.
func (s *LifecycleService) CreateInvoice(ctx context.Context, actor identity.Actor, req CreateInvoiceRequest) (_ *InvoiceDetailResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create",
		telemetry.SpanAttrCustomerID, req.CustomerID.String(),
		telemetry.SpanAttrArticleCount, len(req.Articles),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if err := identity.Guard(s.policy, actor, identity.CapabilityManageInvoices); err != nil {
		return nil, err
	}
	if err := s.validator.Check(req); err != nil {
		return nil, err
	}

	lines := make([]invoicing.ArticleLine, len(req.Articles))
	for i, a := range req.Articles {
		lines[i] = a.Line()
	}
	invoice, err := invoicing.NewInvoice(req.CustomerID, invoicing.InvoiceType(req.InvoiceType), invoicing.NormalizeComments(req.Comments), lines, actor.ID)
	if err != nil {
		return nil, err
	}

	var customerName string
	err = execute(ctx, s.scope, "create_invoice", func(repos TransactionalRepositories) error {
		customer, err := repos.Customers().FindByID(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		customerName = customer.Name
		if err := repos.Invoices().Create(ctx, invoice); err != nil {
			return err
		}
		return repos.Articles().CreateBatch(ctx, invoice.Articles)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("customer_id", invoice.CustomerID.String()),
		zap.Int("articles", len(invoice.Articles)),
		zap.String("total", money(invoice.Total())),
		zap.String("actor_id", actor.ID.String()),
	)
	publishAggregate(ctx, s.publisher, &invoice.BaseAggregateRoot)
	return ToInvoiceDetailResponse(invoice, customerName), nil
}

// MarkPaid sets the paid flag. Calling it on a paid invoice still refreshes
// the update timestamp.
func (s *LifecycleService) MarkPaid(ctx context.Context, actor identity.Actor, id uuid.UUID) (*InvoiceDetailResponse, error) {
	return s.setPaid(ctx, actor, id, true)
}

// MarkUnpaid clears the paid flag, refreshing the update timestamp
func (s *LifecycleService) MarkUnpaid(ctx context.Context, actor identity.Actor, id uuid.UUID) (*InvoiceDetailResponse, error) {
	return s.setPaid(ctx, actor, id, false)
}

func (s *LifecycleService) setPaid(ctx context.Context, actor identity.Actor, id uuid.UUID, paid bool) (*InvoiceDetailResponse, error) {
	if err := identity.Guard(s.policy, actor, identity.CapabilityPaidStatus); err != nil {
		return nil, err
	}

	var (
		invoice      *invoicing.Invoice
		customerName string
	)
	err := execute(ctx, s.scope, "set_paid_status", func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.Invoices().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !actor.IsPrivileged() && !invoice.IsOwnedBy(actor.ID) {
			return shared.NewDomainError(shared.ErrForbidden.Code, "Only the creator of an invoice may change its paid status")
		}
		if paid {
			invoice.MarkPaid(actor.ID)
		} else {
			invoice.MarkUnpaid(actor.ID)
		}
		if err := repos.Invoices().Update(ctx, invoice); err != nil {
			return err
		}
		customer, err := repos.Customers().FindByID(ctx, invoice.CustomerID)
		if err != nil {
			return err
		}
		customerName = customer.Name
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice paid status set",
		zap.String("invoice_id", id.String()),
		zap.Bool("paid", paid),
		zap.String("actor_id", actor.ID.String()),
	)
	publishAggregate(ctx, s.publisher, &invoice.BaseAggregateRoot)
	return ToInvoiceDetailResponse(invoice, customerName), nil
}

// BulkSetPaidStatus sets the paid flag on every listed invoice the actor may
// change and returns how many were updated. Non-privileged actors only reach
// invoices they created; other IDs, and IDs that do not exist, are skipped
// without error. An empty list returns 0 without touching the store.
func (s *LifecycleService) BulkSetPaidStatus(ctx context.Context, actor identity.Actor, ids []uuid.UUID, paid bool) (int, error) {
	if err := identity.Guard(s.policy, actor, identity.CapabilityBulkPaidStatus); err != nil {
		return 0, err
	}
	return s.bulkSetPaidStatus(ctx, actor, ids, paid)
}

// SetPaidStatus validates a bulk paid-status request and applies it like
// BulkSetPaidStatus
func (s *LifecycleService) SetPaidStatus(ctx context.Context, actor identity.Actor, req SetPaidStatusRequest) (int, error) {
	if err := identity.Guard(s.policy, actor, identity.CapabilityBulkPaidStatus); err != nil {
		return 0, err
	}
	if err := s.validator.Check(req); err != nil {
		return 0, err
	}
	return s.bulkSetPaidStatus(ctx, actor, req.IDs, *req.Paid)
}

// bulkSetPaidStatus expects the caller to have checked the actor
func (s *LifecycleService) bulkSetPaidStatus(ctx context.Context, actor identity.Actor, ids []uuid.UUID, paid bool) (_ int, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "bulk_set_paid_status",
		telemetry.SpanAttrRequested, len(ids),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	var updated []uuid.UUID
	err = execute(ctx, s.scope, "bulk_set_paid_status", func(repos TransactionalRepositories) error {
		var err error
		updated, err = repos.Invoices().SetPaidStatus(ctx, ids, actor.OwnerScope(), paid, shared.Now())
		return err
	})
	if err != nil {
		return 0, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrUpdated, len(updated))

	s.logger.Info("bulk paid status set",
		zap.Int("requested", len(ids)),
		zap.Int("updated", len(updated)),
		zap.Bool("paid", paid),
		zap.Bool("privileged", actor.IsPrivileged()),
		zap.String("actor_id", actor.ID.String()),
	)
	if len(updated) > 0 {
		publishEvents(ctx, s.publisher, invoicing.NewInvoicesBulkPaidStatusChangedEvent(updated, paid, len(ids), actor.ID))
	}
	return len(updated), nil
}

// DeleteCustomer removes a customer that has no invoices. A customer with
// invoices is protected and yields a *shared.ReferentialIntegrityError.
func (s *LifecycleService) DeleteCustomer(ctx context.Context, actor identity.Actor, customerID uuid.UUID) error {
	if err := identity.Guard(s.policy, actor, identity.CapabilityManageCustomers); err != nil {
		return err
	}

	var customer *invoicing.Customer
	err := execute(ctx, s.scope, "delete_customer", func(repos TransactionalRepositories) error {
		var err error
		customer, err = repos.Customers().FindByID(ctx, customerID)
		if err != nil {
			return err
		}
		count, err := repos.Invoices().CountByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		if count > 0 {
			return shared.NewReferentialIntegrityError(invoicing.AggregateTypeCustomer, customerID, "invoices", count)
		}
		return repos.Customers().Delete(ctx, customerID)
	})
	if err != nil {
		var integrityErr *shared.ReferentialIntegrityError
		if errors.As(err, &integrityErr) {
			s.logger.Warn("customer delete blocked by invoices",
				zap.String("customer_id", customerID.String()),
				zap.Int64("invoices", integrityErr.Count),
			)
		}
		return err
	}

	s.logger.Info("customer deleted",
		zap.String("customer_id", customerID.String()),
		zap.String("actor_id", actor.ID.String()),
	)
	customer.MarkDeleted(actor.ID)
	publishAggregate(ctx, s.publisher, &customer.BaseAggregateRoot)
	return nil
}

// DeleteInvoice removes an invoice together with all of its articles
func (s *LifecycleService) DeleteInvoice(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	if err := identity.Guard(s.policy, actor, identity.CapabilityManageInvoices); err != nil {
		return err
	}

	var (
		invoice *invoicing.Invoice
		removed int64
	)
	err := execute(ctx, s.scope, "delete_invoice", func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.Invoices().FindByID(ctx, id)
		if err != nil {
			return err
		}
		removed, err = repos.Articles().DeleteByInvoice(ctx, id)
		if err != nil {
			return err
		}
		return repos.Invoices().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("invoice deleted",
		zap.String("invoice_id", id.String()),
		zap.Int64("articles_removed", removed),
		zap.String("actor_id", actor.ID.String()),
	)
	invoice.MarkDeleted(actor.ID)
	publishAggregate(ctx, s.publisher, &invoice.BaseAggregateRoot)
	return nil
}

// UpdateComments replaces an invoice's comments
func (s *LifecycleService) UpdateComments(ctx context.Context, actor identity.Actor, id uuid.UUID, req UpdateCommentsRequest) (*InvoiceDetailResponse, error) {
	if err := identity.Guard(s.policy, actor, identity.CapabilityManageInvoices); err != nil {
		return nil, err
	}
	if err := s.validator.Check(req); err != nil {
		return nil, err
	}

	var (
		invoice      *invoicing.Invoice
		customerName string
	)
	err := execute(ctx, s.scope, "update_comments", func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.Invoices().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := invoice.UpdateComments(invoicing.NormalizeComments(req.Comments), actor.ID); err != nil {
			return err
		}
		if err := repos.Invoices().Update(ctx, invoice); err != nil {
			return err
		}
		customer, err := repos.Customers().FindByID(ctx, invoice.CustomerID)
		if err != nil {
			return err
		}
		customerName = customer.Name
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishAggregate(ctx, s.publisher, &invoice.BaseAggregateRoot)
	return ToInvoiceDetailResponse(invoice, customerName), nil
}

// AddArticle appends a line to an existing invoice. The invoice's update
// timestamp and stored total are refreshed by the ArticleAdded observer.
func (s *LifecycleService) AddArticle(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID, req ArticleRequest) (*ArticleResponse, error) {
	if err := identity.Guard(s.policy, actor, identity.CapabilityManageInvoices); err != nil {
		return nil, err
	}
	if err := s.validator.Check(req); err != nil {
		return nil, err
	}

	var (
		invoice *invoicing.Invoice
		article *invoicing.Article
	)
	err := execute(ctx, s.scope, "add_article", func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.Invoices().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		article, err = invoice.AddArticle(req.Line(), actor.ID)
		if err != nil {
			return err
		}
		return repos.Articles().CreateBatch(ctx, []invoicing.Article{*article})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("article added",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("article_id", article.ID.String()),
		zap.String("line_total", money(article.LineTotal())),
	)
	publishAggregate(ctx, s.publisher, &invoice.BaseAggregateRoot)
	resp := ToArticleResponse(article)
	return &resp, nil
}

// RemoveArticle deletes a single line. The ArticleRemoved observer refreshes
// the owning invoice.
func (s *LifecycleService) RemoveArticle(ctx context.Context, actor identity.Actor, articleID uuid.UUID) error {
	if err := identity.Guard(s.policy, actor, identity.CapabilityManageInvoices); err != nil {
		return err
	}

	var invoice *invoicing.Invoice
	err := execute(ctx, s.scope, "remove_article", func(repos TransactionalRepositories) error {
		article, err := repos.Articles().FindByID(ctx, articleID)
		if err != nil {
			return err
		}
		invoice, err = repos.Invoices().FindByID(ctx, article.InvoiceID)
		if err != nil {
			return err
		}
		if _, err := invoice.RemoveArticle(articleID, actor.ID); err != nil {
			return err
		}
		return repos.Articles().Delete(ctx, articleID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("article removed",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("article_id", articleID.String()),
	)
	publishAggregate(ctx, s.publisher, &invoice.BaseAggregateRoot)
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
