package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, vote *Vote) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Vote, error)
	// ListByCategory returns votes newest-first, optionally filtered to rows
	// where itemID participated on either side. A non-zero afterID restricts
	// the page to rows older than that id.
	ListByCategory(ctx context.Context, db *gorm.DB, categoryID, itemID, afterID snowflake.ID, limit int) ([]Vote, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	CountByCategory(ctx context.Context, db *gorm.DB, categoryID snowflake.ID) (int64, error)
	// CountParticipant counts ledger rows where the item appeared on either
	// side of a comparison within the category.
	CountParticipant(ctx context.Context, db *gorm.DB, itemID, categoryID snowflake.ID) (int64, error)
	// ListByUserBetween returns a user's votes in [from, to) newest-first.
	ListByUserBetween(ctx context.Context, db *gorm.DB, userID snowflake.ID, from, to time.Time) ([]Vote, error)
	DeleteAfter(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
	StatsDaily(ctx context.Context, db *gorm.DB, since time.Time) ([]DailyCount, error)
}
