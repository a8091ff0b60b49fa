package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	ListByCategory(ctx context.Context, categoryID string) ([]Response, error)
}

type CreateRequest struct {
	CategoryID string `json:"category_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
}

type UpdateRequest struct {
	ID     string  `json:"id"`
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

type Response struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var (
	ErrInvalidCategory = errors.New("invalid_category")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
