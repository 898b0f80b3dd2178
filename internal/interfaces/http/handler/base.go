package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/ledgercore/internal/domain/ledger"
	"github.com/erp/ledgercore/internal/domain/shared"
	"github.com/erp/ledgercore/internal/domain/tenancy"
	"github.com/erp/ledgercore/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, page, pageSize, count int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, page, pageSize, count))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// domainErrorStatus maps domain error codes to HTTP status codes
var domainErrorStatus = map[string]int{
	"NOT_FOUND":            http.StatusNotFound,
	"UNAUTHORIZED":         http.StatusUnauthorized,
	"FORBIDDEN":            http.StatusForbidden,
	"ALREADY_EXISTS":       http.StatusConflict,
	"ALREADY_POSTED":       http.StatusConflict,
	"REVERSAL_CONFLICT":    http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"EMPTY_ENTRY":          http.StatusUnprocessableEntity,
	"INVALID_STATE":        http.StatusUnprocessableEntity,
}

// HandleError converts domain and posting errors to HTTP responses.
//
// Validation failures of the posting guard map to 422: the request was
// well-formed but the ledger rules reject it. Cross-tenant access surfaces
// as 404 or 403, never as a hint that the resource exists elsewhere.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var closedPeriod *ledger.ClosedPeriodError
	if errors.As(err, &closedPeriod) {
		h.Error(c, http.StatusUnprocessableEntity, "CLOSED_PERIOD", closedPeriod.Error())
		return
	}

	var inactiveAccount *ledger.InactiveAccountError
	if errors.As(err, &inactiveAccount) {
		h.Error(c, http.StatusUnprocessableEntity, "INACTIVE_ACCOUNT", inactiveAccount.Error())
		return
	}

	var unbalanced *ledger.UnbalancedJournalError
	if errors.As(err, &unbalanced) {
		h.Error(c, http.StatusUnprocessableEntity, "UNBALANCED_ENTRY", unbalanced.Error())
		return
	}

	var assignErr *tenancy.InvalidTenantAssignmentError
	if errors.As(err, &assignErr) {
		h.Error(c, http.StatusForbidden, "TENANT_MISMATCH", assignErr.Error())
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status, ok := domainErrorStatus[domainErr.Code]
		if !ok {
			if strings.HasPrefix(domainErr.Code, "INVALID_") {
				status = http.StatusBadRequest
			} else {
				status = http.StatusInternalServerError
			}
		}
		h.Error(c, status, domainErr.Code, domainErr.Message)
		return
	}

	h.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
}
