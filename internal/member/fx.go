package member

import (
	"github.com/marcelomar21/bets-estatistica/internal/member/repository"
	"github.com/marcelomar21/bets-estatistica/internal/member/service"
	"go.uber.org/fx"
)

var Module = fx.Module("member.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
