// Package domain contains persistence models for the append-only score
// history. A score row is immutable once written; the current rating of an
// item in a category is the most recent row by creation time.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Score is one point in an item's rating history within a category.
type Score struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	ItemID     snowflake.ID `json:"item_id" gorm:"not null;index:ix_scores_item_category,priority:1"`
	CategoryID snowflake.ID `json:"category_id" gorm:"not null;index:ix_scores_item_category,priority:2"`
	Score      float64      `json:"score" gorm:"not null"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index:ix_scores_item_category,priority:3"`
}

// TableName sets the database table name.
func (Score) TableName() string { return "scores" }

// DefaultScore is the rating assigned when an item first enters a category.
const DefaultScore = 0.0
