package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/photosync/photosync/internal/pkg/metrics"
	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/core/ports"
)

const (
	msgEmailTaken  = "The email has already been taken."
	msgInvalidRole = "The selected role is invalid."
)

// AuthService implements registration, login and logout.
type AuthService struct {
	users     ports.UserRepository
	tokens    ports.TokenService
	events    ports.EventPublisher
	cost      int
	dummyHash []byte
	log       zerolog.Logger
}

// NewAuthService returns an AuthService hashing with the given bcrypt cost
// (bcrypt.DefaultCost when out of range). events may be nil.
func NewAuthService(users ports.UserRepository, tokens ports.TokenService, events ports.EventPublisher, cost int, log zerolog.Logger) (*AuthService, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if events == nil {
		events = nopPublisher{}
	}

	// Compared against when the email is unknown so both login failures cost one bcrypt run.
	dummy, err := bcrypt.GenerateFromPassword([]byte("photosync-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &AuthService{
		users:     users,
		tokens:    tokens,
		events:    events,
		cost:      cost,
		dummyHash: dummy,
		log:       log,
	}, nil
}

// Register creates a user with a bcrypt-hashed password and issues its first token.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	role := domain.DefaultRole
	if strings.TrimSpace(in.Role) != "" {
		r, ok := domain.ParseRole(in.Role)
		if !ok || !r.SelfAssignable() {
			return nil, domain.NewValidationError("role", msgInvalidRole)
		}
		role = r
	}

	email := domain.NormalizeEmail(in.Email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.NewValidationError("email", msgEmailTaken)
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	user, err := s.users.Create(ctx, &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.NewValidationError("email", msgEmailTaken)
		}
		return nil, fmt.Errorf("register: create user: %w", err)
	}

	token, _, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues(role.String()).Inc()
	s.events.Publish(domain.AuthEvent{
		Kind:       domain.EventRegistered,
		UserID:     user.ID,
		Email:      user.Email,
		RemoteIP:   in.RemoteIP,
		OccurredAt: now,
	})
	s.log.Info().Int64("user_id", user.ID).Str("role", role.String()).Msg("user registered")

	return &ports.AuthResult{Token: token, User: user}, nil
}

// Login verifies credentials and issues a new token. Unknown email and wrong
// password both return domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password, remoteIP string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("login: lookup email: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.loginFailed(email, remoteIP, 0)
		return nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.loginFailed(email, remoteIP, user.ID)
		return nil, domain.ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.events.Publish(domain.AuthEvent{
		Kind:       domain.EventLoginSucceeded,
		UserID:     user.ID,
		Email:      user.Email,
		RemoteIP:   remoteIP,
		OccurredAt: time.Now().UTC(),
	})
	s.log.Info().Int64("user_id", user.ID).Msg("login succeeded")

	return &ports.AuthResult{Token: token, User: user}, nil
}

// Logout revokes only the token used for this request.
func (s *AuthService) Logout(ctx context.Context, user *domain.User, token *domain.AccessToken) error {
	if user == nil || token == nil {
		return domain.ErrUnauthenticated
	}
	if err := s.tokens.Revoke(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	metrics.TokensRevokedTotal.WithLabelValues("logout").Inc()
	s.events.Publish(domain.AuthEvent{
		Kind:       domain.EventLogout,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	})
	s.log.Info().Int64("user_id", user.ID).Str("token_id", token.ID).Msg("token revoked on logout")
	return nil
}

// CreateAdmin provisions an admin account from an operator command. It is the
// only path that assigns RoleAdmin. Returns domain.ErrUserExists when the
// email is already registered, whatever its role.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	ve := &domain.ValidationError{}
	if strings.TrimSpace(name) == "" {
		ve.Add("name", "The name field is required.")
	}
	if email == "" {
		ve.Add("email", "The email field is required.")
	}
	if len(password) < 6 {
		ve.Add("password", "The password must be at least 6 characters.")
	}
	if !ve.Empty() {
		return nil, ve
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("create admin: hash password: %w", err)
	}

	now := time.Now().UTC()
	user, err := s.users.Create(ctx, &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Msg("admin account created")
	return user, nil
}

func (s *AuthService) loginFailed(email, remoteIP string, userID int64) {
	metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
	s.events.Publish(domain.AuthEvent{
		Kind:       domain.EventLoginFailed,
		UserID:     userID,
		Email:      email,
		RemoteIP:   remoteIP,
		OccurredAt: time.Now().UTC(),
	})
	s.log.Warn().Str("email", email).Msg("invalid login credentials")
}

type nopPublisher struct{}

func (nopPublisher) Publish(domain.AuthEvent) {}
