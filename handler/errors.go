package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aashish23092/loan-intake-verification/dto"
	"github.com/Aashish23092/loan-intake-verification/session"
)

// sendError sends a structured error response
func (h *ApplicationHandler) sendError(c *gin.Context, statusCode int, code dto.ErrorCode, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		h.logger.Warn(message,
			zap.String("applicant_id", c.Param("id")),
			zap.String("error_code", string(code)),
			zap.Error(err))
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: errorMsg,
		Code:    statusCode,
	})
}

// sendServiceError maps service errors onto HTTP statuses.
func (h *ApplicationHandler) sendServiceError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, session.ErrVerificationInProgress):
		h.sendError(c, http.StatusConflict, dto.ErrCodeVerificationInFlight, message, err)
	case errors.Is(err, dto.ErrInvalidLoanAmount), errors.Is(err, dto.ErrInvalidLoanPeriod):
		h.sendError(c, http.StatusBadRequest, dto.ErrCodeInvalidLoanTerms, message, err)
	default:
		h.sendError(c, http.StatusInternalServerError, dto.ErrCodeInternal, message, err)
	}
}
