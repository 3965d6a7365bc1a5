package identity

import (
	"fmt"

	"github.com/invoicing/backend/internal/domain/shared"
)

// Capability names an operation class checked by Guard
type Capability string

const (
	CapabilityView            Capability = "billing:view"
	CapabilityManageCustomers Capability = "billing:customers:manage"
	CapabilityManageInvoices  Capability = "billing:invoices:manage"
	CapabilityBulkPaidStatus  Capability = "billing:invoices:bulk_status"
	CapabilityPaidStatus      Capability = "billing:invoices:paid_status"
	CapabilityReadStatistics  Capability = "billing:statistics:read"
)

// Requirement is the minimum standing an actor needs for a capability
type Requirement int

const (
	// RequirePrivileged is the zero value so unknown capabilities deny non-privileged actors
	RequirePrivileged Requirement = iota
	RequireAuthenticated
)

// Policy maps capabilities to requirements. It is passed explicitly to the
// services that enforce it.
type Policy map[Capability]Requirement

// DefaultPolicy restricts record management to privileged users and lets
// any authenticated user read and change the paid status of their own invoices.
func DefaultPolicy() Policy {
	return Policy{
		CapabilityView:            RequireAuthenticated,
		CapabilityReadStatistics:  RequireAuthenticated,
		CapabilityBulkPaidStatus:  RequireAuthenticated,
		CapabilityPaidStatus:      RequireAuthenticated,
		CapabilityManageCustomers: RequirePrivileged,
		CapabilityManageInvoices:  RequirePrivileged,
	}
}

// With returns a copy of p with capability set to requirement
func (p Policy) With(capability Capability, requirement Requirement) Policy {
	out := make(Policy, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[capability] = requirement
	return out
}

// Requirement returns the requirement for capability
func (p Policy) Requirement(capability Capability) Requirement {
	if req, ok := p[capability]; ok {
		return req
	}
	return RequirePrivileged
}

// Guard checks that actor may use capability under policy. It returns
// shared.ErrUnauthorized for anonymous or inactive actors and a forbidden
// domain error when the actor lacks the required privilege.
func Guard(policy Policy, actor Actor, capability Capability) error {
	if !actor.IsAuthenticated() {
		return shared.ErrUnauthorized
	}
	if policy.Requirement(capability) == RequirePrivileged && !actor.IsPrivileged() {
		return shared.NewDomainError(shared.ErrForbidden.Code, fmt.Sprintf("%s requires a privileged user", capability))
	}
	return nil
}
