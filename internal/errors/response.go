package errors

import (
	"errors"
	"net/http"

	"github.com/booktime/booktime-backend/internal/app/service"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`   // code from codes.go
	Message string `json:"message"` // human readable
}

func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Login required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "You do not have permission to do this"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Something went wrong, please try again later"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// ValidationError lists per-field problems.
type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Message: "Invalid input",
		Fields:  fields,
	})
}

// RespondServiceError turns an error returned by the service layer into a
// response, using the error kind to pick the status code. context names
// the operation for errors the services did not classify.
func RespondServiceError(c *gin.Context, err error, context string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		RespondWithValidationError(c, verr.Fields)
	case errors.Is(err, service.ErrInvalidCredentials):
		Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrEmailAlreadyExists):
		Conflict(c, AuthEmailAlreadyExists, err.Error())
	case errors.Is(err, service.ErrInactiveUser):
		RespondWithError(c, http.StatusForbidden, AuthInactiveUser, err.Error())
	case errors.Is(err, service.ErrValidation):
		BadRequest(c, ValidationInvalidInput, err.Error())
	case errors.Is(err, service.ErrBasketNotFound):
		NotFound(c, BasketNotFound, err.Error())
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, ResourceNotFound, err.Error())
	case errors.Is(err, service.ErrPrecondition):
		Conflict(c, BasketPrecondition, err.Error())
	case errors.Is(err, service.ErrProductInUse):
		Conflict(c, ResourceInUse, err.Error())
	case errors.Is(err, service.ErrCheckoutConflict), errors.Is(err, service.ErrMergeInProgress):
		Conflict(c, BasketConflict, err.Error())
	case errors.Is(err, service.ErrConflict):
		Conflict(c, ResourceConflict, err.Error())
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrDependency):
		RespondWithError(c, http.StatusBadGateway, InternalExternalAPI, err.Error())
	default:
		info := ParseError(err, context)
		RespondWithError(c, info.Status, info.Code, info.Message)
	}
}
