package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/photosync/photosync/internal/api/middleware"
	"github.com/photosync/photosync/internal/core/domain"
)

// identity returns the caller resolved by the Auth middleware. A missing
// identity means the route was wired without Auth, which is reported as
// unauthenticated rather than trusted.
func identity(c echo.Context) (*domain.User, *domain.AccessToken, error) {
	user, token := middleware.Identity(c)
	if user == nil || token == nil {
		return nil, nil, domain.ErrUnauthenticated
	}
	return user, token, nil
}

// bindAndValidate decodes the JSON body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
