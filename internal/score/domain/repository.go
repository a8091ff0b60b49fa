package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, score *Score) error
	Latest(ctx context.Context, db *gorm.DB, itemID, categoryID snowflake.ID) (*Score, error)
	History(ctx context.Context, db *gorm.DB, itemID, categoryID snowflake.ID, limit int) ([]Score, error)
	Rankings(ctx context.Context, db *gorm.DB, categoryID snowflake.ID, limit, offset int) ([]Score, error)
	DeleteBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
}
