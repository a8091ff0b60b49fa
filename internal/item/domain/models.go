package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Item is a comparable entity within a category. Its rating lives in the
// score history, not here.
type Item struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	CategoryID snowflake.ID `json:"category_id" gorm:"not null;index:ix_items_category_name,priority:1"`
	Name       string       `json:"name" gorm:"not null;index:ix_items_category_name,priority:2"`
	Active     bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Item) TableName() string { return "items" }
