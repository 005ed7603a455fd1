package errors

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a client-safe description of an unclassified error.
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// ParseError classifies raw persistence and network errors without leaking
// driver messages to clients.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: getDefaultErrorMessage(context)}
	}

	errLower := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrorInfo{Status: http.StatusNotFound, Code: ResourceNotFound, Message: getNotFoundMessage(context)}

	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(errLower, "duplicate key"),
		strings.Contains(errLower, "unique constraint"):
		return parseDuplicateKeyError(errLower)

	case errors.Is(err, gorm.ErrForeignKeyViolated),
		strings.Contains(errLower, "foreign key constraint"):
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceInUse, Message: "The record is still referenced by other data"}

	case strings.Contains(errLower, "check constraint"):
		if strings.Contains(errLower, "quantity") {
			return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationInvalidRange, Message: "Quantity must be at least 1"}
		}
		return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationInvalidInput, Message: "Invalid input"}

	case strings.Contains(errLower, "connection refused"),
		strings.Contains(errLower, "no such host"),
		strings.Contains(errLower, "timeout"):
		return ErrorInfo{Status: http.StatusBadGateway, Code: InternalExternalAPI, Message: "An upstream service is unavailable, please try again later"}
	}

	return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: getDefaultErrorMessage(context)}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Status: http.StatusConflict, Code: AuthEmailAlreadyExists, Message: "This email is already registered"}
	case strings.Contains(errLower, "slug"):
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceAlreadyExists, Message: "This slug is already in use"}
	case strings.Contains(errLower, "idx_baskets_open_user"):
		return ErrorInfo{Status: http.StatusConflict, Code: BasketConflict, Message: "An open basket already exists, please retry"}
	}
	return ErrorInfo{Status: http.StatusConflict, Code: ResourceAlreadyExists, Message: "This record already exists"}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)
	for _, noun := range []string{"product", "tag", "basket", "order", "address", "user", "image"} {
		if strings.Contains(contextLower, noun) {
			return strings.ToUpper(noun[:1]) + noun[1:] + " not found"
		}
	}
	return "The requested data was not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "create"):
		return "Could not create the record, please try again later"
	case strings.Contains(contextLower, "update"):
		return "Could not update the record, please try again later"
	case strings.Contains(contextLower, "delete"):
		return "Could not delete the record, please try again later"
	}
	return "Something went wrong, please try again later"
}
