package migration

import (
	"strings"

	categorydomain "github.com/smallbiznis/versus/internal/category/domain"
	"github.com/smallbiznis/versus/internal/config"
	itemdomain "github.com/smallbiznis/versus/internal/item/domain"
	scoredomain "github.com/smallbiznis/versus/internal/score/domain"
	"github.com/smallbiznis/versus/internal/seed"
	snapshotdomain "github.com/smallbiznis/versus/internal/snapshot/domain"
	votedomain "github.com/smallbiznis/versus/internal/vote/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if strings.EqualFold(strings.TrimSpace(cfg.DBType), "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql and sqlite deployments skip the versioned migrations and
			// let gorm derive the schema from the models.
			if err := conn.AutoMigrate(
				&categorydomain.Category{},
				&itemdomain.Item{},
				&scoredomain.Score{},
				&votedomain.Vote{},
				&snapshotdomain.Snapshot{},
			); err != nil {
				return err
			}
		}

		if !cfg.IsProduction() {
			return seed.EnsureDemoCategory(conn)
		}
		return nil
	}),
)
