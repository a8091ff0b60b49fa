package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	categorydomain "github.com/smallbiznis/versus/internal/category/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() categorydomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, c *categorydomain.Category) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO categories (id, slug, name, description, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.Slug,
		c.Name,
		c.Description,
		c.Active,
		c.CreatedAt,
		c.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, c *categorydomain.Category) error {
	return db.WithContext(ctx).Exec(
		`UPDATE categories
		 SET name = ?, description = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name,
		c.Description,
		c.Active,
		c.UpdatedAt,
		c.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*categorydomain.Category, error) {
	var category categorydomain.Category
	err := db.WithContext(ctx).Raw(
		`SELECT id, slug, name, description, active, created_at, updated_at
		 FROM categories WHERE id = ?`,
		id,
	).Scan(&category).Error
	if err != nil {
		return nil, err
	}
	if category.ID == 0 {
		return nil, nil
	}
	return &category, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*categorydomain.Category, error) {
	var category categorydomain.Category
	err := db.WithContext(ctx).Raw(
		`SELECT id, slug, name, description, active, created_at, updated_at
		 FROM categories WHERE slug = ?`,
		slug,
	).Scan(&category).Error
	if err != nil {
		return nil, err
	}
	if category.ID == 0 {
		return nil, nil
	}
	return &category, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]categorydomain.Category, error) {
	query := `SELECT id, slug, name, description, active, created_at, updated_at FROM categories`
	if activeOnly {
		query += ` WHERE active = ?`
	}
	query += ` ORDER BY created_at ASC`

	var categories []categorydomain.Category
	var err error
	if activeOnly {
		err = db.WithContext(ctx).Raw(query, true).Scan(&categories).Error
	} else {
		err = db.WithContext(ctx).Raw(query).Scan(&categories).Error
	}
	if err != nil {
		return nil, err
	}
	return categories, nil
}
