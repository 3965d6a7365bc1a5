package invoicing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
)

// Sex is the customer's declared sex
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// IsValid reports whether s is a known value
func (s Sex) IsValid() bool {
	return s == SexMale || s == SexFemale
}

// Label returns the display label
func (s Sex) Label() string {
	switch s {
	case SexMale:
		return "Male"
	case SexFemale:
		return "Female"
	default:
		return string(s)
	}
}

// Field limits
const (
	MaxCustomerNameLength = 132
	MinPhoneLength        = 7
	MaxPhoneLength        = 20
	MaxAddressLength      = 255
	MaxCityLength         = 64
	MaxZipCodeLength      = 16
	MaxAge                = 150
)

// CustomerProfile is the editable part of a customer record
type CustomerProfile struct {
	Name    string
	Email   string
	Phone   string
	Address string
	Sex     Sex
	Age     *int
	City    string
	ZipCode string
}

// Normalize cleans the text fields and lower-cases the email
func (p CustomerProfile) Normalize() CustomerProfile {
	p.Name = shared.CleanText(p.Name)
	p.Email = NormalizeEmail(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Address = shared.CleanText(p.Address)
	p.City = shared.CleanText(p.City)
	p.ZipCode = strings.TrimSpace(p.ZipCode)
	return p
}

// Violations checks the field rules that need no store access.
// Email uniqueness is checked by the caller against the repository.
func (p CustomerProfile) Violations() []shared.FieldViolation {
	var v []shared.FieldViolation
	if p.Name == "" {
		v = append(v, shared.FieldViolation{Field: "name", Message: "This field is required"})
	} else if len([]rune(p.Name)) > MaxCustomerNameLength {
		v = append(v, shared.FieldViolation{Field: "name", Message: "Must be at most 132 characters"})
	}
	if !IsValidEmail(p.Email) {
		v = append(v, shared.FieldViolation{Field: "email", Message: "Invalid email format"})
	}
	if n := len([]rune(p.Phone)); n < MinPhoneLength {
		v = append(v, shared.FieldViolation{Field: "phone", Message: "Must be at least 7 characters"})
	} else if n > MaxPhoneLength {
		v = append(v, shared.FieldViolation{Field: "phone", Message: "Must be at most 20 characters"})
	}
	if p.Address == "" {
		v = append(v, shared.FieldViolation{Field: "address", Message: "This field is required"})
	} else if len([]rune(p.Address)) > MaxAddressLength {
		v = append(v, shared.FieldViolation{Field: "address", Message: "Must be at most 255 characters"})
	}
	if !p.Sex.IsValid() {
		v = append(v, shared.FieldViolation{Field: "sex", Message: "Must be one of: M F"})
	}
	if p.Age != nil && (*p.Age < 0 || *p.Age > MaxAge) {
		v = append(v, shared.FieldViolation{Field: "age", Message: "Must be between 0 and 150"})
	}
	if p.City == "" {
		v = append(v, shared.FieldViolation{Field: "city", Message: "This field is required"})
	} else if len([]rune(p.City)) > MaxCityLength {
		v = append(v, shared.FieldViolation{Field: "city", Message: "Must be at most 64 characters"})
	}
	if p.ZipCode == "" {
		v = append(v, shared.FieldViolation{Field: "zip_code", Message: "This field is required"})
	} else if len([]rune(p.ZipCode)) > MaxZipCodeLength {
		v = append(v, shared.FieldViolation{Field: "zip_code", Message: "Must be at most 16 characters"})
	}
	return v
}

// Customer is a billable party
type Customer struct {
	shared.OwnedAggregateRoot
	Name    string
	Email   string
	Phone   string
	Address string
	Sex     Sex
	Age     *int
	City    string
	ZipCode string
}

// NewCustomer creates a customer attributed to createdBy
func NewCustomer(profile CustomerProfile, createdBy uuid.UUID) (*Customer, error) {
	profile = profile.Normalize()
	if violations := profile.Violations(); len(violations) > 0 {
		return nil, shared.NewValidationError(violations...)
	}

	customer := &Customer{OwnedAggregateRoot: shared.NewOwnedAggregateRoot(createdBy)}
	customer.apply(profile)
	customer.RecordEvent(NewCustomerCreatedEvent(customer, createdBy))

	return customer, nil
}

// Update replaces the customer's profile
func (c *Customer) Update(profile CustomerProfile, actorID uuid.UUID) error {
	profile = profile.Normalize()
	if violations := profile.Violations(); len(violations) > 0 {
		return shared.NewValidationError(violations...)
	}

	c.apply(profile)
	c.Touch()
	c.RecordEvent(NewCustomerUpdatedEvent(c, actorID))

	return nil
}

// MarkDeleted records the deletion event
func (c *Customer) MarkDeleted(actorID uuid.UUID) {
	c.RecordEvent(NewCustomerDeletedEvent(c, actorID))
}

// Profile returns the editable fields
func (c *Customer) Profile() CustomerProfile {
	return CustomerProfile{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
		Sex:     c.Sex,
		Age:     c.Age,
		City:    c.City,
		ZipCode: c.ZipCode,
	}
}

func (c *Customer) apply(p CustomerProfile) {
	c.Name = p.Name
	c.Email = p.Email
	c.Phone = p.Phone
	c.Address = p.Address
	c.Sex = p.Sex
	c.Age = p.Age
	c.City = p.City
	c.ZipCode = p.ZipCode
}
