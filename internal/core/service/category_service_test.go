package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/photosync/photosync/internal/core/domain"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Weddings", "weddings"},
		{"Street Photography", "street-photography"},
		{"  Black & White  ", "black-white"},
		{"Café Portraits", "cafe-portraits"},
		{"Ñandú", "nandu"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCategoryService_Create(t *testing.T) {
	repo := &stubCategoryRepo{}
	svc := NewCategoryService(repo, zerolog.Nop())

	cat, err := svc.Create(context.Background(), "  Street Photography ")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if cat.ID == 0 || cat.Name != "Street Photography" || cat.Slug != "street-photography" {
		t.Fatalf("unexpected category %+v", cat)
	}

	_, err = svc.Create(context.Background(), "Street Photography")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || len(ve.Fields["name"]) != 1 {
		t.Fatalf("duplicate name: got %v", err)
	}
}

func TestCategoryService_CreateRejectsBadNames(t *testing.T) {
	svc := NewCategoryService(&stubCategoryRepo{}, zerolog.Nop())

	for _, name := range []string{"", "   ", "???", strings.Repeat("a", 256)} {
		_, err := svc.Create(context.Background(), name)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Create(%q) = %v, want validation error", name, err)
		}
	}
}

func TestCategoryService_CreateCountsCharactersNotBytes(t *testing.T) {
	svc := NewCategoryService(&stubCategoryRepo{}, zerolog.Nop())

	name := strings.Repeat("é", 255)
	cat, err := svc.Create(context.Background(), name)
	if err != nil {
		t.Fatalf("Create(255 x é) returned error: %v", err)
	}
	if cat.Slug != strings.Repeat("e", 255) {
		t.Fatalf("slug = %q", cat.Slug)
	}

	_, err = svc.Create(context.Background(), strings.Repeat("é", 256))
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Create(256 x é) = %v, want validation error", err)
	}
}

func TestCategoryService_Delete(t *testing.T) {
	repo := &stubCategoryRepo{}
	svc := NewCategoryService(repo, zerolog.Nop())
	cat, err := svc.Create(context.Background(), "Weddings")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Delete(context.Background(), cat.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(context.Background(), cat.ID); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("second Delete = %v, want ErrCategoryNotFound", err)
	}
	cats, _ := svc.List(context.Background())
	if len(cats) != 0 {
		t.Fatalf("List = %+v, want empty", cats)
	}
}
