package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/core/ports"
)

type CategoryRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) ports.CategoryRepository {
	return &CategoryRepository{db: db, coll: db.Collection(collCategories)}
}

type mongoCategory struct {
	ID        int64  `bson:"_id"`
	Name      string `bson:"name"`
	Slug      string `bson:"slug"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoCategory
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	cats := make([]*domain.Category, 0, len(docs))
	for _, d := range docs {
		cats = append(cats, &domain.Category{
			ID:        d.ID,
			Name:      d.Name,
			Slug:      d.Slug,
			CreatedAt: unixToTime(d.CreatedAt),
			UpdatedAt: unixToTime(d.UpdatedAt),
		})
	}
	return cats, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	id, err := nextSequence(ctx, r.db, collCategories)
	if err != nil {
		return nil, err
	}

	doc := mongoCategory{
		ID:        id,
		Name:      c.Name,
		Slug:      c.Slug,
		CreatedAt: c.CreatedAt.Unix(),
		UpdatedAt: c.UpdatedAt.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrCategoryExists
		}
		return nil, fmt.Errorf("insert category: %w", err)
	}

	created := *c
	created.ID = id
	return &created, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}
