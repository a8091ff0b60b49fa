// Package domain contains the dated ranking snapshot models. A snapshot row
// freezes one item's score and leaderboard position for a single day so
// trend charts never depend on the live score history.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Snapshot is one frozen leaderboard row.
type Snapshot struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	ItemID     snowflake.ID `json:"item_id" gorm:"not null;index:ix_snapshots_item_date,priority:1"`
	CategoryID snowflake.ID `json:"category_id" gorm:"not null;index:ix_snapshots_category_date,priority:1"`
	Score      float64      `json:"score" gorm:"not null"`
	Ranking    int          `json:"ranking" gorm:"not null"`
	Date       time.Time    `json:"date" gorm:"not null;index:ix_snapshots_category_date,priority:2;index:ix_snapshots_item_date,priority:2"`
}

// TableName sets the database table name.
func (Snapshot) TableName() string { return "snapshots" }
