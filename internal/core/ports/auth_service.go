package ports

import (
	"context"

	"github.com/photosync/photosync/internal/core/domain"
)

// RegisterInput is the already-validated registration payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	RemoteIP string
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password, remoteIP string) (*AuthResult, error)
	// Logout revokes exactly the token the caller authenticated with.
	Logout(ctx context.Context, user *domain.User, token *domain.AccessToken) error
}

// TokenService is the Token Issuer/Validator.
type TokenService interface {
	Issue(ctx context.Context, user *domain.User) (string, *domain.AccessToken, error)
	// Resolve returns domain.ErrUnauthenticated for every kind of invalid token.
	Resolve(ctx context.Context, plaintext string) (*domain.User, *domain.AccessToken, error)
	Revoke(ctx context.Context, token *domain.AccessToken) error
	RevokeAllForUser(ctx context.Context, userID int64) (int, error)
	SweepExpired(ctx context.Context) (int, error)
}
