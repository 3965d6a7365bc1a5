package invoicing

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CustomerService creates and edits customers. Deletion lives in
// LifecycleService because it is guarded by the invoices a customer owns.
type CustomerService struct {
	scope     TransactionScope
	policy    identity.Policy
	validator *Validator
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(scope TransactionScope, policy identity.Policy, validator *Validator, publisher shared.EventPublisher, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		scope:     scope,
		policy:    policy,
		validator: validator,
		publisher: publisher,
		logger:    logger.Named("customer_service"),
	}
}

// Create validates and stores a new customer attributed to the actor
func (s *CustomerService) Create(ctx context.Context, actor identity.Actor, req CustomerRequest) (*CustomerResponse, error) {
	if err := identity.Guard(s.policy, actor, identity.CapabilityManageCustomers); err != nil {
		return nil, err
	}
	req = req.normalized()
	if err := s.validator.Check(req); err != nil {
		return nil, err
	}
	customer, err := invoicing.NewCustomer(req.Profile(), actor.ID)
	if err != nil {
		return nil, err
	}

	err = execute(ctx, s.scope, "create_customer", func(repos TransactionalRepositories) error {
		if err := ensureEmailFree(ctx, repos.Customers(), customer.Email, uuid.Nil); err != nil {
			return err
		}
		return repos.Customers().Create(ctx, customer)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("actor_id", actor.ID.String()),
	)
	publishAggregate(ctx, s.publisher, &customer.BaseAggregateRoot)
	return ToCustomerResponse(customer), nil
}

// Update replaces a customer's profile. The email may stay the same; it must
// not belong to any other customer.
func (s *CustomerService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req CustomerRequest) (*CustomerResponse, error) {
	if err := identity.Guard(s.policy, actor, identity.CapabilityManageCustomers); err != nil {
		return nil, err
	}
	req = req.normalized()
	if err := s.validator.Check(req); err != nil {
		return nil, err
	}

	var customer *invoicing.Customer
	err := execute(ctx, s.scope, "update_customer", func(repos TransactionalRepositories) error {
		var err error
		customer, err = repos.Customers().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := customer.Update(req.Profile(), actor.ID); err != nil {
			return err
		}
		if err := ensureEmailFree(ctx, repos.Customers(), customer.Email, customer.ID); err != nil {
			return err
		}
		return repos.Customers().Update(ctx, customer)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("customer updated",
		zap.String("customer_id", customer.ID.String()),
		zap.String("actor_id", actor.ID.String()),
	)
	publishAggregate(ctx, s.publisher, &customer.BaseAggregateRoot)
	return ToCustomerResponse(customer), nil
}

func ensureEmailFree(ctx context.Context, customers invoicing.CustomerRepository, email string, excludeID uuid.UUID) error {
	taken, err := customers.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return shared.NewValidationError(shared.FieldViolation{
			Field:   "email",
			Message: "Customer with this email already exists",
		})
	}
	return nil
}
