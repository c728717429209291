// Package id provides the snowflake node used for primary key generation.
// Each process instance must run with a distinct NODE_ID for ids to stay
// unique across workers.
package id

import (
	"github.com/bwmarrin/snowflake"
	"github.com/marcelomar21/bets-estatistica/internal/config"
	"go.uber.org/fx"
)

func NewNode(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}

var Module = fx.Module("id",
	fx.Provide(NewNode),
)
