package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/versus/internal/abuse"
	"github.com/smallbiznis/versus/internal/category"
	categorydomain "github.com/smallbiznis/versus/internal/category/domain"
	"github.com/smallbiznis/versus/internal/config"
	"github.com/smallbiznis/versus/internal/events"
	"github.com/smallbiznis/versus/internal/item"
	itemdomain "github.com/smallbiznis/versus/internal/item/domain"
	"github.com/smallbiznis/versus/internal/observability"
	obsmiddleware "github.com/smallbiznis/versus/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/versus/internal/observability/metrics"
	"github.com/smallbiznis/versus/internal/ratelimit"
	"github.com/smallbiznis/versus/internal/score"
	scoredomain "github.com/smallbiznis/versus/internal/score/domain"
	"github.com/smallbiznis/versus/internal/snapshot"
	snapshotdomain "github.com/smallbiznis/versus/internal/snapshot/domain"
	"github.com/smallbiznis/versus/internal/vote"
	votedomain "github.com/smallbiznis/versus/internal/vote/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	events.Module,
	category.Module,
	item.Module,
	score.Module,
	vote.Module,
	abuse.Module,
	snapshot.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	genID       *snowflake.Node
	voteSvc     votedomain.Service
	scoreSvc    scoredomain.Service
	categorySvc categorydomain.Service
	itemSvc     itemdomain.Service
	snapshots   snapshotdomain.Repository
	voteLimiter *ratelimit.VoteLimiter
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	GenID       *snowflake.Node
	VoteSvc     votedomain.Service
	ScoreSvc    scoredomain.Service
	CategorySvc categorydomain.Service
	ItemSvc     itemdomain.Service
	Snapshots   snapshotdomain.Repository
	VoteLimiter *ratelimit.VoteLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		genID:       p.GenID,
		voteSvc:     p.VoteSvc,
		scoreSvc:    p.ScoreSvc,
		categorySvc: p.CategorySvc,
		itemSvc:     p.ItemSvc,
		snapshots:   p.Snapshots,
		voteLimiter: p.VoteLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/v1")

	// -------- Voting --------
	api.POST("/voting", s.VoteRateLimit(), s.RecordVote)
	api.GET("/voting/category/:categoryId", s.ListVotesByCategory)
	api.GET("/voting/count", s.CountVotes)
	api.GET("/voting/stats", s.VoteStats)

	// -------- Categories --------
	api.GET("/categories", s.ListCategories)
	api.POST("/categories", s.CreateCategory)
	api.GET("/categories/:id", s.GetCategoryByID)
	api.PATCH("/categories/:id", s.UpdateCategory)
	api.GET("/categories/:id/rankings", s.GetCategoryRankings)
	api.GET("/categories/:id/snapshots", s.ListCategorySnapshots)

	// -------- Items --------
	api.GET("/items", s.ListItemsByCategory)
	api.POST("/items", s.CreateItem)
	api.GET("/items/:id", s.GetItemByID)
	api.PATCH("/items/:id", s.UpdateItem)
	api.GET("/items/:id/scores", s.GetItemScoreHistory)
	api.GET("/items/:id/snapshots", s.ListItemSnapshots)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/v1/admin")

	admin.DELETE("/voting", s.PurgeVotesAfter)
	admin.DELETE("/scores", s.PurgeScoresBefore)
}
