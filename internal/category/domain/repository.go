package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, category *Category) error
	Update(ctx context.Context, db *gorm.DB, category *Category) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Category, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Category, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]Category, error)
}
