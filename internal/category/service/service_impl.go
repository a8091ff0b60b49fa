package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	categorydomain "github.com/smallbiznis/versus/internal/category/domain"
	"github.com/smallbiznis/versus/internal/clock"
	"github.com/smallbiznis/versus/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  categorydomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  categorydomain.Repository
}

func New(p Params) categorydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("category.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req categorydomain.CreateRequest) (*categorydomain.Response, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if slug == "" {
		return nil, categorydomain.ErrInvalidSlug
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, categorydomain.ErrInvalidName
	}

	now := s.clock.Now().UTC()
	category := &categorydomain.Category{
		ID:          s.genID.Generate(),
		Slug:        slug,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, category); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, categorydomain.ErrDuplicate
		}
		return nil, err
	}

	return s.toResponse(category), nil
}

func (s *Service) Update(ctx context.Context, req categorydomain.UpdateRequest) (*categorydomain.Response, error) {
	id, err := categorydomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, categorydomain.ErrInvalidID
	}

	category, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, categorydomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, categorydomain.ErrInvalidName
		}
		category.Name = name
	}

	if req.Description != nil {
		category.Description = strings.TrimSpace(*req.Description)
	}

	if req.Active != nil {
		category.Active = *req.Active
	}

	category.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, s.db, category); err != nil {
		return nil, err
	}

	return s.toResponse(category), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*categorydomain.Response, error) {
	parsed, err := categorydomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, categorydomain.ErrInvalidID
	}

	category, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, categorydomain.ErrNotFound
	}

	return s.toResponse(category), nil
}

func (s *Service) List(ctx context.Context) ([]categorydomain.Response, error) {
	categories, err := s.repo.List(ctx, s.db, false)
	if err != nil {
		return nil, err
	}

	resp := make([]categorydomain.Response, 0, len(categories))
	for i := range categories {
		resp = append(resp, *s.toResponse(&categories[i]))
	}
	return resp, nil
}

func (s *Service) toResponse(c *categorydomain.Category) *categorydomain.Response {
	return &categorydomain.Response{
		ID:          c.ID.String(),
		Slug:        c.Slug,
		Name:        c.Name,
		Description: c.Description,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
