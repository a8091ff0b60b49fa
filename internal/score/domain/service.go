package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Seed writes the initial rating row for an item entering a category.
	Seed(ctx context.Context, itemID, categoryID string) (*Response, error)
	Latest(ctx context.Context, itemID, categoryID string) (*Response, error)
	History(ctx context.Context, itemID, categoryID string, limit int) ([]Response, error)
	Rankings(ctx context.Context, categoryID string, limit, offset int) ([]RankingEntry, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Response struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"item_id"`
	CategoryID string    `json:"category_id"`
	Score      float64   `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
}

// RankingEntry is a row of the category leaderboard: the latest score of an
// item plus its 1-based position ordered by score descending.
type RankingEntry struct {
	Ranking    int     `json:"ranking"`
	ItemID     string  `json:"item_id"`
	CategoryID string  `json:"category_id"`
	Score      float64 `json:"score"`
}

var (
	ErrInvalidItem     = errors.New("invalid_item")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrInvalidCutoff   = errors.New("invalid_cutoff")
	ErrNotFound        = errors.New("not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
