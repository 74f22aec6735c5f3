package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/core/ports"
)

type categoryRow struct {
	ID        int64        `db:"id"`
	Name      string       `db:"name"`
	Slug      string       `db:"slug"`
	CreatedAt sql.NullTime `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
}

type categoryRepository struct {
	db *DB
}

func NewCategoryRepository(db *DB) ports.CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	var rows []categoryRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, slug, created_at, updated_at FROM categories ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	cats := make([]*domain.Category, 0, len(rows))
	for _, row := range rows {
		cats = append(cats, &domain.Category{
			ID:        row.ID,
			Name:      row.Name,
			Slug:      row.Slug,
			CreatedAt: row.CreatedAt.Time,
			UpdatedAt: row.UpdatedAt.Time,
		})
	}
	return cats, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	created := *c
	created.CreatedAt = dbTime(c.CreatedAt)
	created.UpdatedAt = dbTime(c.UpdatedAt)

	query := r.db.Rebind(`
		INSERT INTO categories (name, slug, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query, created.Name, created.Slug, created.CreatedAt, created.UpdatedAt).Scan(&created.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrCategoryExists
		}
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &created, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM categories WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}
