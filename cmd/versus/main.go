package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/versus/internal/clock"
	"github.com/smallbiznis/versus/internal/config"
	"github.com/smallbiznis/versus/internal/migration"
	"github.com/smallbiznis/versus/internal/observability"
	"github.com/smallbiznis/versus/internal/scheduler"
	"github.com/smallbiznis/versus/internal/server"
	"github.com/smallbiznis/versus/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		server.Module,
		scheduler.Module,
		migration.Module,
	)

	app.Run()
}

// RegisterSnowflake provides the ID generator shared by every service.
func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
