// Package handler implements the billing REST endpoints on top of the
// application services.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessList sends a capped list
func (h *BaseHandler) SuccessList(c *gin.Context, data any, count, limit int) {
	c.JSON(http.StatusOK, dto.NewListResponse(data, count, limit))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// BindJSON decodes the request body into req. It answers the request and
// returns false when the body is unreadable.
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
		return false
	}
	h.BadRequest(c, "Malformed request body: "+err.Error())
	return false
}

// ParamID parses the named path parameter as a UUID. An ID that cannot name
// any record is answered as not found.
func (h *BaseHandler) ParamID(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, resource+" not found")
		return uuid.Nil, false
	}
	return id, true
}

// Actor returns the identity the request runs as
func (h *BaseHandler) Actor(c *gin.Context) identity.Actor {
	return middleware.GetActor(c)
}

// HandleError converts a service error into the API error envelope
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var (
		validationErr  *shared.ValidationError
		notFoundErr    *shared.NotFoundError
		integrityErr   *shared.ReferentialIntegrityError
		transactionErr *shared.TransactionError
		domainErr      *shared.DomainError
	)
	switch {
	case errors.As(err, &validationErr):
		details := make([]dto.ValidationDetail, len(validationErr.Violations))
		for i, v := range validationErr.Violations {
			details[i] = dto.ValidationDetail{Field: v.Field, Message: v.Message}
		}
		c.JSON(http.StatusUnprocessableEntity, dto.NewValidationErrorResponse("Validation failed", requestID, details))
	case errors.As(err, &notFoundErr):
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, notFoundErr.Error())
	case errors.As(err, &integrityErr):
		h.Error(c, http.StatusConflict, dto.ErrCodeReferentialIntegrity, integrityErr.Error())
	case errors.As(err, &transactionErr):
		logger.L(c.Request.Context()).Error("transaction failed", zap.String("op", transactionErr.Op), zap.Error(transactionErr.Err))
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeTransaction, "The operation could not be completed")
	case errors.As(err, &domainErr):
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
	default:
		logger.L(c.Request.Context()).Error("unhandled error", zap.Error(err))
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
	}
}
