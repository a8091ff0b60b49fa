package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertBatch(ctx context.Context, db *gorm.DB, snapshots []Snapshot) error
	// ListByCategory returns snapshot rows for one category, newest day
	// first, ranking ascending within a day.
	ListByCategory(ctx context.Context, db *gorm.DB, categoryID snowflake.ID, limit int) ([]Snapshot, error)
	ListByItem(ctx context.Context, db *gorm.DB, itemID, categoryID snowflake.ID, limit int) ([]Snapshot, error)
	DeleteBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
}
