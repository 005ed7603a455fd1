package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Error kinds. Every error a service returns on purpose wraps exactly
// one of these, so callers can branch with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrPrecondition = errors.New("precondition failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrDependency   = errors.New("dependency failure")
	ErrForbidden    = errors.New("forbidden")
)

func kindError(kind error, msg string) error {
	return fmt.Errorf("%w: %s", kind, msg)
}

var (
	ErrUserNotFound        = kindError(ErrNotFound, "user not found")
	ErrProductNotFound     = kindError(ErrNotFound, "product not found")
	ErrTagNotFound         = kindError(ErrNotFound, "tag not found")
	ErrAddressNotFound     = kindError(ErrNotFound, "address not found")
	ErrBasketNotFound      = kindError(ErrNotFound, "basket not found")
	ErrBasketLineNotFound  = kindError(ErrNotFound, "basket line not found")
	ErrOrderNotFound       = kindError(ErrNotFound, "order not found")
	ErrOrderItemNotFound   = kindError(ErrNotFound, "order item not found")
	ErrImageNotFound       = kindError(ErrNotFound, "image not found")
	ErrBasketHasNoUser     = kindError(ErrPrecondition, "cannot create order without user")
	ErrBasketNotOpen       = kindError(ErrPrecondition, "basket is already submitted")
	ErrBasketEmpty         = kindError(ErrPrecondition, "basket is empty")
	ErrInvalidQuantity     = kindError(ErrValidation, "quantity must be at least 1")
	ErrAddressRequired     = kindError(ErrValidation, "billing and shipping addresses are required")
	ErrUnsupportedCountry  = kindError(ErrValidation, "country is not supported")
	ErrInvalidPrice        = kindError(ErrValidation, "price must not be negative")
	ErrPriceTooHigh        = kindError(ErrValidation, "price must be at most 9999.99")
	ErrNameTooLong         = kindError(ErrValidation, "name must be at most 32 characters")
	ErrRequired            = kindError(ErrValidation, "value is required")
	ErrInvalidSlug         = kindError(ErrValidation, "slug must contain letters or digits")
	ErrSlugTooLong         = kindError(ErrValidation, "slug must be at most 48 characters")
	ErrImageTooLarge       = kindError(ErrValidation, "image dimensions are too large")
	ErrInvalidStatus       = kindError(ErrValidation, "unknown status")
	ErrCheckoutConflict    = kindError(ErrConflict, "basket was modified concurrently, retry")
	ErrMergeInProgress     = kindError(ErrConflict, "basket merge already in progress, retry")
	ErrProductInUse        = kindError(ErrConflict, "product is referenced by orders")
	ErrDuplicateSlug       = kindError(ErrConflict, "slug already exists")
	ErrDuplicateValue      = kindError(ErrConflict, "value already exists")
	ErrEmailAlreadyExists  = kindError(ErrConflict, "email already exists")
	ErrInvalidCredentials  = kindError(ErrValidation, "invalid email or password")
	ErrPasswordMismatch    = kindError(ErrValidation, "passwords do not match")
	ErrInactiveUser        = kindError(ErrForbidden, "user is inactive")
	ErrResourceForbidden   = kindError(ErrForbidden, "resource not available for role")
	ErrFieldNotEditable    = kindError(ErrForbidden, "field is not editable for role")
	ErrUnknownAdminField   = kindError(ErrValidation, "unknown field")
	ErrImageUndecodable    = kindError(ErrDependency, "image could not be processed")
	ErrMailDeliveryFailure = kindError(ErrDependency, "email could not be sent")
)

// notFound maps gorm's miss onto the given domain error and leaves
// other errors untouched.
func notFound(err error, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}

// ValidationError carries per-field messages for form-style input. Field
// errors added with Add stay in the chain, so errors.Is still finds the
// specific sentinel.
type ValidationError struct {
	Fields map[string]string
	causes []error
}

// Add records err against field, keeping only its short message.
func (e *ValidationError) Add(field string, err error) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
	e.causes = append(e.causes, err)
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %v", e.Fields)
}

func (e *ValidationError) Unwrap() []error {
	return append([]error{ErrValidation}, e.causes...)
}
