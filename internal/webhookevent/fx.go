package webhookevent

import (
	"github.com/marcelomar21/bets-estatistica/internal/webhookevent/repository"
	"github.com/marcelomar21/bets-estatistica/internal/webhookevent/service"
	"go.uber.org/fx"
)

var Module = fx.Module("webhookevent.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
