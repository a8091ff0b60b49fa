package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Category groups comparable items; votes and rankings are always scoped to
// one category.
type Category struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	Slug        string       `json:"slug" gorm:"not null;uniqueIndex"`
	Name        string       `json:"name" gorm:"not null"`
	Description string       `json:"description"`
	Active      bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Category) TableName() string { return "categories" }
