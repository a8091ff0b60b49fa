package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	categorydomain "github.com/smallbiznis/versus/internal/category/domain"
	"github.com/smallbiznis/versus/internal/clock"
	itemdomain "github.com/smallbiznis/versus/internal/item/domain"
	scoredomain "github.com/smallbiznis/versus/internal/score/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       itemdomain.Repository
	Categories categorydomain.Repository
	Scores     scoredomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       itemdomain.Repository
	categories categorydomain.Repository
	scores     scoredomain.Service
}

func New(p Params) itemdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("item.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		categories: p.Categories,
		scores:     p.Scores,
	}
}

func (s *Service) Create(ctx context.Context, req itemdomain.CreateRequest) (*itemdomain.Response, error) {
	categoryID, err := itemdomain.ParseID(strings.TrimSpace(req.CategoryID))
	if err != nil || categoryID == 0 {
		return nil, itemdomain.ErrInvalidCategory
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, itemdomain.ErrInvalidName
	}

	category, err := s.categories.FindByID(ctx, s.db, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, itemdomain.ErrInvalidCategory
	}

	now := s.clock.Now().UTC()
	item := &itemdomain.Item{
		ID:         s.genID.Generate(),
		CategoryID: categoryID,
		Name:       name,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, s.db, item); err != nil {
		return nil, err
	}

	// Best-effort entry score so the item appears on the leaderboard before
	// its first comparison. Not transactional with the item insert.
	if _, err := s.scores.Seed(ctx, item.ID.String(), categoryID.String()); err != nil {
		s.log.Warn("failed to seed entry score",
			zap.Error(err),
			zap.String("item_id", item.ID.String()),
			zap.String("category_id", categoryID.String()),
		)
	}

	return s.toResponse(item), nil
}

func (s *Service) Update(ctx context.Context, req itemdomain.UpdateRequest) (*itemdomain.Response, error) {
	id, err := itemdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, itemdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, itemdomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, itemdomain.ErrInvalidName
		}
		item.Name = name
	}

	if req.Active != nil {
		item.Active = *req.Active
	}

	item.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	return s.toResponse(item), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*itemdomain.Response, error) {
	parsed, err := itemdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, itemdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, itemdomain.ErrNotFound
	}

	return s.toResponse(item), nil
}

func (s *Service) ListByCategory(ctx context.Context, categoryID string) ([]itemdomain.Response, error) {
	parsed, err := itemdomain.ParseID(strings.TrimSpace(categoryID))
	if err != nil || parsed == 0 {
		return nil, itemdomain.ErrInvalidCategory
	}

	items, err := s.repo.ListByCategory(ctx, s.db, parsed, false)
	if err != nil {
		return nil, err
	}

	resp := make([]itemdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *s.toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) toResponse(item *itemdomain.Item) *itemdomain.Response {
	return &itemdomain.Response{
		ID:         item.ID.String(),
		CategoryID: item.CategoryID.String(),
		Name:       item.Name,
		Active:     item.Active,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}
