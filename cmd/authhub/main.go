package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/authhub/internal/clock"
	"github.com/smallbiznis/authhub/internal/observability"
	"github.com/smallbiznis/authhub/internal/server"
	"github.com/smallbiznis/authhub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
