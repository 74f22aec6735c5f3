package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/photosync/photosync/internal/pkg/metrics"
	"github.com/photosync/photosync/internal/core/domain"
)

// Context keys set by Auth.
const (
	ContextKeyUser  = "user"
	ContextKeyToken = "token"
)

// TokenResolver maps a presented bearer token to its owner.
type TokenResolver interface {
	Resolve(ctx context.Context, plaintext string) (*domain.User, *domain.AccessToken, error)
}

// Auth resolves the bearer token and injects the user and token record into
// the context. Missing, malformed, unknown and expired tokens all fail with
// domain.ErrUnauthenticated.
func Auth(tokens TokenResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			plaintext, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.AccessDeniedTotal.WithLabelValues("unauthenticated").Inc()
				return domain.ErrUnauthenticated
			}

			user, token, err := tokens.Resolve(c.Request().Context(), plaintext)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					metrics.AccessDeniedTotal.WithLabelValues("unauthenticated").Inc()
				}
				return err
			}

			c.Set(ContextKeyUser, user)
			c.Set(ContextKeyToken, token)
			return next(c)
		}
	}
}

// Identity returns what Auth stored on the context, or nils when the route
// is not behind Auth.
func Identity(c echo.Context) (*domain.User, *domain.AccessToken) {
	user, _ := c.Get(ContextKeyUser).(*domain.User)
	token, _ := c.Get(ContextKeyToken).(*domain.AccessToken)
	return user, token
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
