package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/versus/pkg/db/pagination"
)

type Service interface {
	// Record settles one pairwise comparison: it reads both participants'
	// current ratings, computes the Elo update, appends the ledger row and
	// announces the rating change.
	Record(ctx context.Context, req RecordRequest) (*Response, error)
	ListByCategory(ctx context.Context, req ListRequest) ([]Response, *pagination.PageInfo, error)
	Count(ctx context.Context, categoryID string) (int64, error)
	Stats(ctx context.Context, days int) ([]DailyCount, error)
	PurgeAfter(ctx context.Context, cutoff time.Time) (int64, error)
}

type RecordRequest struct {
	CategoryID   string            `json:"category_id" binding:"required"`
	ContestantID string            `json:"contestant_id" binding:"required"`
	OpponentID   string            `json:"opponent_id" binding:"required"`
	WinnerID     string            `json:"winner_id" binding:"required"`
	UserID       string            `json:"user_id,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type ListRequest struct {
	CategoryID string
	ItemID     string
	Pagination pagination.Pagination
}

type Response struct {
	ID           string `json:"id"`
	CategoryID   string `json:"category_id"`
	ContestantID string `json:"contestant_id"`
	OpponentID   string `json:"opponent_id"`
	WinnerID     string `json:"winner_id"`
	UserID       string `json:"user_id,omitempty"`

	ContestantPreviousScore  float64 `json:"contestant_previous_score"`
	ContestantCurrentScore   float64 `json:"contestant_current_score"`
	ContestantWinProbability float64 `json:"contestant_win_probability"`
	OpponentPreviousScore    float64 `json:"opponent_previous_score"`
	OpponentCurrentScore     float64 `json:"opponent_current_score"`
	OpponentWinProbability   float64 `json:"opponent_win_probability"`

	KFactor   int       `json:"k_factor"`
	Abused    bool      `json:"abused"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidCategory   = errors.New("invalid_category")
	ErrInvalidContestant = errors.New("invalid_contestant")
	ErrInvalidOpponent   = errors.New("invalid_opponent")
	ErrInvalidWinner     = errors.New("invalid_winner")
	ErrInvalidUser       = errors.New("invalid_user")
	ErrInvalidCutoff     = errors.New("invalid_cutoff")
	ErrInvalidMetadata   = errors.New("invalid_metadata")
	ErrSelfComparison    = errors.New("self_comparison")
	ErrNotFound          = errors.New("not_found")
	ErrAbuseDetected     = errors.New("abuse_detected")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
