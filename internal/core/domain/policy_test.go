package domain

import (
	"errors"
	"testing"
)

func TestAuthorize(t *testing.T) {
	client := &User{ID: 1, Role: RoleClient}
	photographer := &User{ID: 2, Role: RolePhotographer}
	admin := &User{ID: 3, Role: RoleAdmin}
	typo := &User{ID: 4, Role: Role("Admin")}

	tests := []struct {
		name     string
		identity *User
		req      Requirement
		want     error
	}{
		{"no identity, any role", nil, AnyRole(), ErrUnauthenticated},
		{"no identity, admin", nil, RequireRole(RoleAdmin), ErrUnauthenticated},
		{"client, any role", client, AnyRole(), nil},
		{"admin, any role", admin, AnyRole(), nil},
		{"admin on admin route", admin, RequireRole(RoleAdmin), nil},
		{"client on client route", client, RequireRole(RoleClient), nil},
		{"admin on client route", admin, RequireRole(RoleClient), ErrForbidden},
		{"client on admin route", client, RequireRole(RoleAdmin), ErrAdminOnly},
		{"photographer on admin route", photographer, RequireRole(RoleAdmin), ErrAdminOnly},
		{"photographer on client route", photographer, RequireRole(RoleClient), ErrForbidden},
		{"unknown role, any role", typo, AnyRole(), ErrForbidden},
		{"unknown role, admin", typo, RequireRole(RoleAdmin), ErrAdminOnly},
		{"unknown required role", admin, RequireRole(Role("root")), ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Authorize(tt.identity, tt.req)
			if !errors.Is(got, tt.want) && !(got == nil && tt.want == nil) {
				t.Fatalf("Authorize() = %v, want %v", got, tt.want)
			}
			if got != nil && tt.want != ErrUnauthenticated && !errors.Is(got, ErrForbidden) {
				t.Fatalf("Authorize() = %v, want a kind of ErrForbidden", got)
			}
			if tt.want == ErrForbidden && errors.Is(got, ErrAdminOnly) {
				t.Fatalf("Authorize() = %v, admin-only reserved for admin requirements", got)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in     string
		want   Role
		wantOK bool
	}{
		{"client", RoleClient, true},
		{" Photographer ", RolePhotographer, true},
		{"ADMIN", RoleAdmin, true},
		{"guest", Role("guest"), false},
		{"", Role(""), false},
	}

	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRoleSelfAssignable(t *testing.T) {
	if !RoleClient.SelfAssignable() || !RolePhotographer.SelfAssignable() {
		t.Fatal("client and photographer must be self-assignable")
	}
	if RoleAdmin.SelfAssignable() {
		t.Fatal("admin must not be self-assignable")
	}
	if Role("other").SelfAssignable() {
		t.Fatal("unknown roles must not be self-assignable")
	}
}

func TestValidationError(t *testing.T) {
	ve := NewValidationError("email", "email is required")
	ve.Add("password", "password must be at least 6 characters")

	if ve.Empty() {
		t.Fatal("expected messages")
	}
	if got, want := ve.Error(), "email is required; password must be at least 6 characters"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
