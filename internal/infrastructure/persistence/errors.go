package persistence

import (
	"errors"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps driver errors, already normalized by gorm's
// TranslateError, onto the domain error taxonomy. Unknown errors pass through.
func translateError(err error, resource string, id uuid.UUID) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.NewNotFoundError(resource, id)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.NewReferentialIntegrityError(resource, id, "dependent records", 0)
	default:
		return err
	}
}

// translateCustomerWriteError additionally maps the unique email index
func translateCustomerWriteError(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewValidationError(shared.FieldViolation{
			Field:   "email",
			Message: "Customer with this email already exists",
		})
	}
	return translateError(err, "customer", id)
}
