package invoicing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Validator checks request DTOs and reports violations under their JSON names
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator for the billing request types
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		return f
	}, decimal.Decimal{})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		id, ok := field.Interface().(uuid.UUID)
		if !ok || id == uuid.Nil {
			return ""
		}
		return id.String()
	}, uuid.UUID{})
	_ = v.RegisterValidation("customer_email", func(fl validator.FieldLevel) bool {
		return invoicing.IsValidEmail(fl.Field().String())
	})
	// decimals reach validators as float64, so the scale is read from the struct
	_ = v.RegisterValidation("money_scale", func(fl validator.FieldLevel) bool {
		parent := reflect.Indirect(fl.Parent())
		if parent.Kind() != reflect.Struct {
			return false
		}
		d, ok := parent.FieldByName(fl.StructFieldName()).Interface().(decimal.Decimal)
		return ok && invoicing.HasMoneyScale(d)
	})
	return &Validator{validate: v}
}

// Violations returns every rule the value breaks, in field order
func (v *Validator) Violations(value any) []shared.FieldViolation {
	err := v.validate.Struct(value)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []shared.FieldViolation{{Field: "", Message: err.Error()}}
	}
	violations := make([]shared.FieldViolation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, shared.FieldViolation{
			Field:   fieldPath(fe.Namespace()),
			Message: message(fe),
		})
	}
	return violations
}

// Check wraps any violations in a *shared.ValidationError
func (v *Validator) Check(value any) error {
	if violations := v.Violations(value); len(violations) > 0 {
		return shared.NewValidationError(violations...)
	}
	return nil
}

// fieldPath drops the root struct name: "CreateInvoiceRequest.articles[0].quantity" -> "articles[0].quantity"
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email", "customer_email":
		return "Invalid email format"
	case "min":
		switch fe.Kind() {
		case reflect.String:
			return "Must be at least " + fe.Param() + " characters"
		case reflect.Slice:
			return "At least " + fe.Param() + " item is required"
		}
		return "Must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "Must be at most " + fe.Param() + " characters"
		}
		return "Must be at most " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "gt":
		return "Must be greater than " + fe.Param()
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	case "lt":
		return "Must be less than " + fe.Param()
	case "lte":
		return "Must be less than or equal to " + fe.Param()
	case "money_scale":
		return fmt.Sprintf("Must have at most %d decimal places", invoicing.MoneyScale)
	default:
		return "Invalid value"
	}
}
