package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skillgate/interviewd/internal/domain/credit"
	"github.com/skillgate/interviewd/internal/domain/interview"
	"github.com/skillgate/interviewd/internal/domain/scoring"
)

// ErrorResponse is the wire envelope for every non-2xx outcome.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine code plus a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorBody(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// writeError maps domain errors to HTTP status codes and stable error codes.
// Every expected outcome keeps its specific message; only unknown errors
// collapse to an opaque internal response.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error("internal error",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, errorBody(code, "internal error"))
		return
	}
	c.JSON(status, errorBody(code, err.Error()))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, credit.ErrStudentNotFound),
		errors.Is(err, credit.ErrOrgNotFound),
		errors.Is(err, interview.ErrInterviewNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, credit.ErrDashboardDisabled),
		errors.Is(err, credit.ErrSelfStartDisabled):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, credit.ErrQuotaExceeded):
		return http.StatusConflict, "quota_exceeded"
	case errors.Is(err, credit.ErrNoCreditsRemaining):
		return http.StatusConflict, "no_credits_remaining"
	case errors.Is(err, credit.ErrResourceConflict):
		return http.StatusConflict, "resource_conflict"
	case errors.Is(err, credit.ErrNotRestorable):
		return http.StatusConflict, "not_restorable"
	case errors.Is(err, interview.ErrInvalidTransition):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, scoring.ErrInvalidWeights):
		return http.StatusBadRequest, "invalid_weights"
	case errors.Is(err, scoring.ErrOutOfRange):
		return http.StatusBadRequest, "out_of_range"
	case errors.Is(err, scoring.ErrNoAnswers),
		errors.Is(err, credit.ErrInvalidInput),
		errors.Is(err, interview.ErrInvalidInput),
		errors.Is(err, interview.ErrMissingReason):
		return http.StatusBadRequest, "invalid_input"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
