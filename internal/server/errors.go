package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	categorydomain "github.com/smallbiznis/versus/internal/category/domain"
	"github.com/smallbiznis/versus/internal/elo"
	itemdomain "github.com/smallbiznis/versus/internal/item/domain"
	scoredomain "github.com/smallbiznis/versus/internal/score/domain"
	votedomain "github.com/smallbiznis/versus/internal/vote/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, votedomain.ErrAbuseDetected):
		return http.StatusForbidden, errorPayload{
			Type:    "abuse_detected",
			Message: "voting pattern flagged as abusive",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, categorydomain.ErrDuplicate):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isVoteValidationError(err),
		isScoreValidationError(err),
		isCategoryValidationError(err),
		isItemValidationError(err),
		errors.Is(err, elo.ErrInvalidRating):
		return true
	default:
		return false
	}
}

func isVoteValidationError(err error) bool {
	switch {
	case errors.Is(err, votedomain.ErrInvalidCategory),
		errors.Is(err, votedomain.ErrInvalidContestant),
		errors.Is(err, votedomain.ErrInvalidOpponent),
		errors.Is(err, votedomain.ErrInvalidWinner),
		errors.Is(err, votedomain.ErrInvalidUser),
		errors.Is(err, votedomain.ErrInvalidCutoff),
		errors.Is(err, votedomain.ErrInvalidMetadata),
		errors.Is(err, votedomain.ErrSelfComparison):
		return true
	default:
		return false
	}
}

func isScoreValidationError(err error) bool {
	switch {
	case errors.Is(err, scoredomain.ErrInvalidItem),
		errors.Is(err, scoredomain.ErrInvalidCategory),
		errors.Is(err, scoredomain.ErrInvalidCutoff):
		return true
	default:
		return false
	}
}

func isCategoryValidationError(err error) bool {
	switch {
	case errors.Is(err, categorydomain.ErrInvalidSlug),
		errors.Is(err, categorydomain.ErrInvalidName),
		errors.Is(err, categorydomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isItemValidationError(err error) bool {
	switch {
	case errors.Is(err, itemdomain.ErrInvalidCategory),
		errors.Is(err, itemdomain.ErrInvalidName),
		errors.Is(err, itemdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, votedomain.ErrNotFound),
		errors.Is(err, scoredomain.ErrNotFound),
		errors.Is(err, categorydomain.ErrNotFound),
		errors.Is(err, itemdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "self_comparison":
		return "contestant and opponent must differ"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog labels request errors for the access log.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status >= http.StatusBadRequest:
		return "client_error", payload.Type
	default:
		return "", ""
	}
}
