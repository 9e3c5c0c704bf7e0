package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/abhisek/fintutor/internal/apperr"
	"github.com/abhisek/fintutor/internal/logger"
)

// APIError is the body of every error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ErrorEnvelope wraps APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

const internalMessage = "something went wrong, please try again"

// statusFor maps an error code to an HTTP status.
func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an ErrorEnvelope. Internal details only go to
// the log.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	code := apperr.CodeOf(err)
	status := statusFor(code)
	msg := err.Error()
	if code == apperr.CodeInternal {
		log.Error("request failed", "path", c.FullPath(), "error", err)
		msg = internalMessage
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: string(code)}})
}

// bindJSON decodes and validates the request body into dst.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return validationError(verrs)
		}
		return apperr.InvalidInput("request body must be valid JSON")
	}
	return nil
}

func validationError(errs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fmt.Sprintf("field %s failed on the %q rule", e.Namespace(), e.Tag()))
	}
	return apperr.InvalidInput(strings.Join(msgs, "; "))
}
