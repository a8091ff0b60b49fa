// Package domain contains the vote ledger models. Every pairwise comparison
// is recorded as one immutable row carrying the full before/after rating
// state so downstream consumers never have to recompute it.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Winner identifies which side of a comparison won.
type Winner string

const (
	WinnerContestant Winner = "contestant"
	WinnerOpponent   Winner = "opponent"
)

// Vote is one entry of the append-only comparison ledger.
type Vote struct {
	ID           snowflake.ID  `json:"id" gorm:"primaryKey"`
	CategoryID   snowflake.ID  `json:"category_id" gorm:"not null;index:ix_votes_category_created,priority:1"`
	ContestantID snowflake.ID  `json:"contestant_id" gorm:"not null"`
	OpponentID   snowflake.ID  `json:"opponent_id" gorm:"not null"`
	WinnerID     snowflake.ID  `json:"winner_id" gorm:"not null"`
	UserID       *snowflake.ID `json:"user_id,omitempty" gorm:"index:ix_votes_user_created,priority:1"`

	ContestantPreviousScore  float64 `json:"contestant_previous_score" gorm:"not null"`
	ContestantCurrentScore   float64 `json:"contestant_current_score" gorm:"not null"`
	ContestantWinProbability float64 `json:"contestant_win_probability" gorm:"not null"`
	OpponentPreviousScore    float64 `json:"opponent_previous_score" gorm:"not null"`
	OpponentCurrentScore     float64 `json:"opponent_current_score" gorm:"not null"`
	OpponentWinProbability   float64 `json:"opponent_win_probability" gorm:"not null"`

	KFactor  int            `json:"k_factor" gorm:"not null"`
	Abused   bool           `json:"abused" gorm:"not null;default:false"`
	Metadata datatypes.JSON `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index:ix_votes_category_created,priority:2;index:ix_votes_user_created,priority:2"`
}

// TableName sets the database table name.
func (Vote) TableName() string { return "votes" }

// Winner reports which role the winning item occupied.
func (v *Vote) Winner() Winner {
	if v.WinnerID == v.ContestantID {
		return WinnerContestant
	}
	return WinnerOpponent
}

// DailyCount is one bucket of the per-day vote aggregation.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
