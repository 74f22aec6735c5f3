package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/photosync/photosync/internal/pkg/metrics"
	"github.com/photosync/photosync/internal/core/domain"
)

// RequireRole admits only identities holding role. It must run after Auth.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	return gate(domain.RequireRole(role))
}

// RequireAuthenticated admits any identity with a known role.
func RequireAuthenticated() echo.MiddlewareFunc {
	return gate(domain.AnyRole())
}

func gate(req domain.Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, _ := Identity(c)
			if err := domain.Authorize(user, req); err != nil {
				kind := "forbidden"
				if errors.Is(err, domain.ErrUnauthenticated) {
					kind = "unauthenticated"
				}
				metrics.AccessDeniedTotal.WithLabelValues(kind).Inc()
				return err
			}
			return next(c)
		}
	}
}
