package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mozillazg/go-unidecode"
	"github.com/rs/zerolog"

	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/core/ports"
)

const maxCategoryName = 255

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

type CategoryService struct {
	repo ports.CategoryRepository
	log  zerolog.Logger
}

func NewCategoryService(repo ports.CategoryRepository, log zerolog.Logger) *CategoryService {
	return &CategoryService{repo: repo, log: log}
}

func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	cats, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Create stores a category named name with a slug derived from it.
func (s *CategoryService) Create(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "The name field is required.")
	}
	if utf8.RuneCountInString(name) > maxCategoryName {
		return nil, domain.NewValidationError("name", "The name may not be greater than 255 characters.")
	}
	slug := Slugify(name)
	if slug == "" {
		return nil, domain.NewValidationError("name", "The name must contain at least one letter or number.")
	}

	now := time.Now().UTC()
	cat, err := s.repo.Create(ctx, &domain.Category{
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCategoryExists) {
			return nil, domain.NewValidationError("name", "The name has already been taken.")
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.log.Info().Int64("category_id", cat.ID).Str("slug", cat.Slug).Msg("category created")
	return cat, nil
}

func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Slugify transliterates name to ASCII and joins its alphanumeric runs with hyphens.
func Slugify(name string) string {
	ascii := strings.ToLower(unidecode.Unidecode(name))
	return strings.Trim(nonSlugChars.ReplaceAllString(ascii, "-"), "-")
}
