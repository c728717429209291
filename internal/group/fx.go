package group

import (
	"github.com/marcelomar21/bets-estatistica/internal/group/repository"
	"github.com/marcelomar21/bets-estatistica/internal/group/service"
	"go.uber.org/fx"
)

var Module = fx.Module("group.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
