package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	itemdomain "github.com/smallbiznis/versus/internal/item/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() itemdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, item *itemdomain.Item) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO items (id, category_id, name, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.CategoryID,
		item.Name,
		item.Active,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, item *itemdomain.Item) error {
	return db.WithContext(ctx).Exec(
		`UPDATE items SET name = ?, active = ?, updated_at = ? WHERE id = ?`,
		item.Name,
		item.Active,
		item.UpdatedAt,
		item.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*itemdomain.Item, error) {
	var item itemdomain.Item
	err := db.WithContext(ctx).Raw(
		`SELECT id, category_id, name, active, created_at, updated_at
		 FROM items WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListByCategory(ctx context.Context, db *gorm.DB, categoryID snowflake.ID, activeOnly bool) ([]itemdomain.Item, error) {
	query := `SELECT id, category_id, name, active, created_at, updated_at
		 FROM items WHERE category_id = ?`
	args := []any{categoryID}
	if activeOnly {
		query += ` AND active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY name ASC`

	var items []itemdomain.Item
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
