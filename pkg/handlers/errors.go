package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/arnavshah/carematch-api/pkg/database"
	"github.com/arnavshah/carematch-api/pkg/evv"
	"github.com/arnavshah/carematch-api/pkg/geo"
)

// APIError is the error body returned by every endpoint
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Error codes
const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeInternal          = "INTERNAL_SERVER_ERROR"
	CodeClientNotFound    = "CLIENT_NOT_FOUND"
	CodeClientInactive    = "CLIENT_INACTIVE"
	CodeActiveShiftExists = "ACTIVE_SHIFT_EXISTS"
	CodeNoActiveShift     = "NO_ACTIVE_SHIFT"
	CodeShiftNotFound     = "SHIFT_NOT_FOUND"
	CodeLocationRequired  = "LOCATION_REQUIRED"
	CodeLocationDenied    = "LOCATION_PERMISSION_DENIED"
	CodeLocationMissing   = "POSITION_UNAVAILABLE"
	CodeLocationTimeout   = "LOCATION_TIMEOUT"
	CodeLocationSupport   = "GEOLOCATION_UNSUPPORTED"
	CodeClockInFailed     = "CLOCK_IN_FAILED"
	CodeClockOutFailed    = "CLOCK_OUT_FAILED"
	CodeRequestCancelled  = "REQUEST_CANCELLED"
)

// NewAPIError creates a new APIError
func NewAPIError(status int, code, message, details string) *APIError {
	return &APIError{StatusCode: status, Code: code, Message: message, Details: details}
}

// RespondWithError writes err and aborts the request
func RespondWithError(c *gin.Context, err *APIError) {
	c.AbortWithStatusJSON(err.StatusCode, gin.H{"error": err})
}

func badRequest(c *gin.Context, message string, err error) {
	details := ""
	if err != nil {
		details = err.Error()
	}
	RespondWithError(c, NewAPIError(http.StatusBadRequest, CodeBadRequest, message, details))
}

// respondDomainError maps lifecycle, location and storage errors onto HTTP responses
func respondDomainError(c *gin.Context, err error) {
	RespondWithError(c, classify(err))
}

func classify(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	detail := err.Error()
	switch {
	case errors.Is(err, evv.ErrClientNotFound):
		return NewAPIError(http.StatusNotFound, CodeClientNotFound, "Client not found", detail)
	case errors.Is(err, evv.ErrClientInactive):
		return NewAPIError(http.StatusConflict, CodeClientInactive, "Client is not active", detail)
	case errors.Is(err, evv.ErrActiveShiftExists):
		return NewAPIError(http.StatusConflict, CodeActiveShiftExists, "You are already clocked in to a shift", detail)
	case errors.Is(err, evv.ErrNoActiveShift):
		return NewAPIError(http.StatusConflict, CodeNoActiveShift, "You are not clocked in", detail)
	case errors.Is(err, evv.ErrShiftNotFound):
		return NewAPIError(http.StatusNotFound, CodeShiftNotFound, "Shift not found", detail)
	case errors.Is(err, evv.ErrWorkerRequired):
		return NewAPIError(http.StatusUnauthorized, CodeUnauthorized, "Worker identity required", detail)
	case errors.Is(err, geo.ErrTimeout):
		return NewAPIError(http.StatusGatewayTimeout, CodeLocationTimeout, "Timed out waiting for a location fix", detail)
	case errors.Is(err, geo.ErrPermissionDenied):
		return NewAPIError(http.StatusUnprocessableEntity, CodeLocationDenied, "Location permission denied", detail)
	case errors.Is(err, geo.ErrUnsupported):
		return NewAPIError(http.StatusUnprocessableEntity, CodeLocationSupport, "Geolocation is not supported on this device", detail)
	case errors.Is(err, evv.ErrLocationRequired):
		return NewAPIError(http.StatusUnprocessableEntity, CodeLocationRequired, "A valid GPS location is required", detail)
	case errors.Is(err, geo.ErrPositionUnavailable):
		return NewAPIError(http.StatusUnprocessableEntity, CodeLocationMissing, "Position unavailable", detail)
	case errors.Is(err, database.ErrNotFound):
		return NewAPIError(http.StatusNotFound, CodeNotFound, "Not found", detail)
	case errors.Is(err, context.Canceled):
		return NewAPIError(http.StatusRequestTimeout, CodeRequestCancelled, "Request cancelled", detail)
	case errors.Is(err, evv.ErrClockInFailed):
		log.Error().Err(err).Msg("clock-in failed")
		return NewAPIError(http.StatusInternalServerError, CodeClockInFailed, "Clock-in failed, please retry", "")
	case errors.Is(err, evv.ErrClockOutFailed):
		log.Error().Err(err).Msg("clock-out failed")
		return NewAPIError(http.StatusInternalServerError, CodeClockOutFailed, "Clock-out failed, please retry", "")
	default:
		log.Error().Err(err).Msg("unhandled error")
		return NewAPIError(http.StatusInternalServerError, CodeInternal, "Internal server error", "")
	}
}
