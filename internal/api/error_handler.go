package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/photosync/photosync/internal/core/domain"
)

const (
	msgUnauthenticated    = "Unauthenticated."
	msgForbidden          = "This action is unauthorized."
	msgAdminOnly          = "Unauthorized: Admin access only"
	msgInvalidData        = "The given data was invalid."
	msgInvalidCredentials = "Invalid credentials."
)

// errorResponse is the canonical error envelope for all API errors.
// Errors is only present for field-level validation failures.
type errorResponse struct {
	Error  string              `json:"error"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, errorResponse{Error: msgInvalidData, Errors: ve.Fields}
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		// Same body for unknown email and wrong password.
		return http.StatusUnprocessableEntity, errorResponse{
			Error:  msgInvalidCredentials,
			Errors: map[string][]string{"email": {msgInvalidCredentials}},
		}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusUnprocessableEntity, errorResponse{
			Error:  msgInvalidData,
			Errors: map[string][]string{"email": {"The email has already been taken."}},
		}
	case errors.Is(err, domain.ErrCategoryExists):
		return http.StatusUnprocessableEntity, errorResponse{
			Error:  msgInvalidData,
			Errors: map[string][]string{"name": {"The name has already been taken."}},
		}
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{Error: msgUnauthenticated}
	case errors.Is(err, domain.ErrAdminOnly):
		return http.StatusForbidden, errorResponse{Error: msgAdminOnly}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: msgForbidden}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: "user not found"}
	case errors.Is(err, domain.ErrCategoryNotFound):
		return http.StatusNotFound, errorResponse{Error: "category not found"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
