package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/saga"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/wizard"
)

// Error codes carried in failed responses.
const (
	ErrorCodeInvalidRequest  = "invalid_request"
	ErrorCodeValidation      = "validation_failed"
	ErrorCodeUnauthenticated = "unauthenticated"
	ErrorCodeForbidden       = "organization_not_found"
	ErrorCodeNotFound        = "not_found"
	ErrorCodeConflict        = "submission_in_flight"
	ErrorCodePartialWrite    = "partial_write"
	ErrorCodeInternal        = "internal_error"
)

const internalErrorMessageConstant = "internal server error"

// Envelope wraps every JSON response.
type Envelope struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorBody `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	AuditID string `json:"audit_id,omitempty"`
}

type responder struct {
	now func() time.Time
}

func (helper responder) success(ginContext *gin.Context, data any) {
	ginContext.JSON(http.StatusOK, Envelope{Success: true, Data: data, Timestamp: helper.now()})
}

func (helper responder) created(ginContext *gin.Context, data any) {
	ginContext.JSON(http.StatusCreated, Envelope{Success: true, Data: data, Timestamp: helper.now()})
}

func (helper responder) failure(ginContext *gin.Context, statusCode int, body ErrorBody) {
	ginContext.AbortWithStatusJSON(statusCode, Envelope{Success: false, Error: &body, Timestamp: helper.now()})
}

// failureFromError maps domain errors to an HTTP status and error body.
func (helper responder) failureFromError(ginContext *gin.Context, failure error) {
	statusCode, body := classifyError(failure)
	helper.failure(ginContext, statusCode, body)
}

func classifyError(failure error) (int, ErrorBody) {
	var validationError wizard.ValidationError
	var writeError saga.WriteError
	switch {
	case errors.As(failure, &validationError):
		return http.StatusUnprocessableEntity, ErrorBody{Code: ErrorCodeValidation, Message: validationError.Message, Field: validationError.Field}
	case errors.Is(failure, wizard.ErrStepIncomplete):
		return http.StatusUnprocessableEntity, ErrorBody{Code: ErrorCodeValidation, Message: failure.Error()}
	case errors.Is(failure, store.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrorBody{Code: ErrorCodeUnauthenticated, Message: failure.Error()}
	case errors.Is(failure, store.ErrOrganizationNotFound):
		return http.StatusForbidden, ErrorBody{Code: ErrorCodeForbidden, Message: failure.Error()}
	case errors.Is(failure, store.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Code: ErrorCodeNotFound, Message: failure.Error()}
	case errors.Is(failure, wizard.ErrSubmissionInFlight):
		return http.StatusConflict, ErrorBody{Code: ErrorCodeConflict, Message: failure.Error()}
	case errors.As(failure, &writeError):
		body := ErrorBody{Code: ErrorCodePartialWrite, Message: failure.Error()}
		if !writeError.Compensated {
			body.AuditID = writeError.AuditID
		}
		return http.StatusBadGateway, body
	default:
		return http.StatusInternalServerError, ErrorBody{Code: ErrorCodeInternal, Message: internalErrorMessageConstant}
	}
}
