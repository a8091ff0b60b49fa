package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, item *Item) error
	Update(ctx context.Context, db *gorm.DB, item *Item) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Item, error)
	ListByCategory(ctx context.Context, db *gorm.DB, categoryID snowflake.ID, activeOnly bool) ([]Item, error)
}
