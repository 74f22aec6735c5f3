package server

import (
	"github.com/rs/zerolog"

	"github.com/photosync/photosync/internal/core/ports"
	"github.com/photosync/photosync/internal/core/service"
	"github.com/photosync/photosync/internal/pkg/config"
)

// Services are the core services built over a set of Stores.
type Services struct {
	Auth       *service.AuthService
	Tokens     *service.TokenService
	Admin      *service.AdminService
	Categories *service.CategoryService
}

// NewServices wires the core services. events receives audit events and may
// be nil for one-off commands that do not run the dispatcher.
func NewServices(stores *Stores, cfg *config.Config, events ports.EventPublisher, log zerolog.Logger) (*Services, error) {
	tokens := service.NewTokenService(stores.Tokens, stores.Users, cfg.Auth.TokenTTL, log)

	auth, err := service.NewAuthService(stores.Users, tokens, events, cfg.Auth.BcryptCost, log)
	if err != nil {
		return nil, err
	}

	return &Services{
		Auth:       auth,
		Tokens:     tokens,
		Admin:      service.NewAdminService(stores.Users, tokens, stores.Audit, events, log),
		Categories: service.NewCategoryService(stores.Categories, log),
	}, nil
}
