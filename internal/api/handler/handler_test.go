package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/photosync/photosync/internal/api/middleware"
	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, email, password, remoteIP string) (*ports.AuthResult, error)
	logoutFn   func(ctx context.Context, user *domain.User, token *domain.AccessToken) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password, remoteIP string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password, remoteIP)
}

func (s *stubAuthService) Logout(ctx context.Context, user *domain.User, token *domain.AccessToken) error {
	return s.logoutFn(ctx, user, token)
}

type stubAdminService struct {
	users     []*domain.User
	deleted   int64
	deleteErr error
}

func (s *stubAdminService) ListUsers(context.Context, *domain.User) ([]*domain.User, error) {
	return s.users, nil
}

func (s *stubAdminService) DeleteUser(_ context.Context, _ *domain.User, id int64) error {
	s.deleted = id
	return s.deleteErr
}

func (s *stubAdminService) RecentEvents(context.Context) ([]*domain.AuthEvent, error) {
	return []*domain.AuthEvent{{ID: 1, Kind: domain.EventRegistered}}, nil
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withIdentity(c echo.Context, user *domain.User) {
	c.Set(middleware.ContextKeyUser, user)
	c.Set(middleware.ContextKeyToken, &domain.AccessToken{ID: "tok-1", UserID: user.ID})
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			if in.Name != "Alice" || in.Email != "alice@example.com" || in.Role != "photographer" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.AuthResult{
				Token: "plain-token",
				User:  &domain.User{ID: 1, Name: in.Name, Email: in.Email, Role: domain.RolePhotographer, PasswordHash: "$2a$..."},
			}, nil
		},
	}
	c, rec := newJSONContext(http.MethodPost, "/api/register",
		`{"name":"Alice","email":"alice@example.com","password":"secret1","role":"photographer"}`)

	if err := NewAuthHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "plain-token" || resp["token_type"] != "Bearer" {
		t.Fatalf("unexpected token fields: %+v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["role"] != "photographer" || user["email"] != "alice@example.com" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if strings.Contains(rec.Body.String(), "$2a$") || strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_ValidationErrors(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*ports.AuthResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	c, _ := newJSONContext(http.MethodPost, "/api/register", `{"email":"not-an-email","password":"123"}`)

	err := NewAuthHandler(stub).Register(c)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"name", "email", "password"} {
		if len(ve.Fields[field]) == 0 {
			t.Fatalf("expected message for %s, got %+v", field, ve.Fields)
		}
	}
	if got := ve.Fields["password"][0]; got != "The password must be at least 6 characters." {
		t.Fatalf("password message = %q", got)
	}
}

func TestAuthHandler_Register_InvalidJSON(t *testing.T) {
	c, _ := newJSONContext(http.MethodPost, "/api/register", `{"name":`)

	err := NewAuthHandler(&stubAuthService{}).Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthHandler_Login_PassesServiceError(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string, string) (*ports.AuthResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	c, _ := newJSONContext(http.MethodPost, "/api/login", `{"email":"a@example.com","password":"nope"}`)

	if err := NewAuthHandler(stub).Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	var revoked *domain.AccessToken
	stub := &stubAuthService{
		logoutFn: func(_ context.Context, _ *domain.User, token *domain.AccessToken) error {
			revoked = token
			return nil
		},
	}
	c, rec := newJSONContext(http.MethodPost, "/api/logout", "")
	withIdentity(c, &domain.User{ID: 5, Role: domain.RoleClient})

	if err := NewAuthHandler(stub).Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if revoked == nil || revoked.ID != "tok-1" {
		t.Fatalf("expected the request token to be revoked, got %+v", revoked)
	}
	if !strings.Contains(rec.Body.String(), "Logged out successfully") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestAuthHandler_Me(t *testing.T) {
	c, rec := newJSONContext(http.MethodGet, "/api/user", "")

	if err := NewAuthHandler(&stubAuthService{}).Me(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated without identity, got %v", err)
	}

	withIdentity(c, &domain.User{ID: 9, Email: "me@example.com", Role: domain.RoleAdmin})
	if err := NewAuthHandler(&stubAuthService{}).Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var user map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if user["email"] != "me@example.com" || user["role"] != "admin" {
		t.Fatalf("unexpected profile %+v", user)
	}
}

func TestAdminHandler_DeleteUser(t *testing.T) {
	stub := &stubAdminService{}
	c, rec := newJSONContext(http.MethodDelete, "/api/admin/users/42", "")
	c.SetParamNames("id")
	c.SetParamValues("42")
	withIdentity(c, &domain.User{ID: 1, Role: domain.RoleAdmin})

	if err := NewAdminHandler(stub).DeleteUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.deleted != 42 {
		t.Fatalf("deleted id = %d", stub.deleted)
	}
	if !strings.Contains(rec.Body.String(), "user deleted successfully") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestAdminHandler_DeleteUser_BadID(t *testing.T) {
	c, _ := newJSONContext(http.MethodDelete, "/api/admin/users/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	withIdentity(c, &domain.User{ID: 1, Role: domain.RoleAdmin})

	if err := NewAdminHandler(&stubAdminService{}).DeleteUser(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAdminHandler_ListUsers(t *testing.T) {
	stub := &stubAdminService{users: []*domain.User{{ID: 2, Role: domain.RoleClient}}}
	c, rec := newJSONContext(http.MethodGet, "/api/admin/users", "")
	withIdentity(c, &domain.User{ID: 1, Role: domain.RoleAdmin})

	if err := NewAdminHandler(stub).ListUsers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var users []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(users) != 1 || users[0]["id"] != float64(2) {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestReadinessHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	c, rec := newJSONContext(http.MethodGet, "/health/ready", "")
	if err := NewReadinessHandler(map[string]Pinger{"database": ok}).Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, rec = newJSONContext(http.MethodGet, "/health/ready", "")
	if err := NewReadinessHandler(map[string]Pinger{"database": ok, "redis": down}).Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "degraded" || resp.Dependencies["redis"].Status != "unhealthy" || resp.Dependencies["database"].Status != "ok" {
		t.Fatalf("unexpected readiness %+v", resp)
	}
}
