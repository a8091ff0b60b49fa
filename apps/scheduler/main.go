package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/versus/internal/category"
	"github.com/smallbiznis/versus/internal/clock"
	"github.com/smallbiznis/versus/internal/config"
	"github.com/smallbiznis/versus/internal/events"
	"github.com/smallbiznis/versus/internal/observability"
	"github.com/smallbiznis/versus/internal/scheduler"
	"github.com/smallbiznis/versus/internal/score"
	"github.com/smallbiznis/versus/internal/snapshot"
	"github.com/smallbiznis/versus/pkg/db"
	"go.uber.org/fx"
)

// Standalone snapshot worker. Runs the capture and cleanup jobs without
// serving HTTP traffic, so archiving can be scaled and restarted
// independently of the voting API.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,

		events.Module,
		category.Module,
		score.Module,
		snapshot.Module,

		scheduler.Module,
	)

	app.Run()
}

func newSnowflakeNode() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
