package telegram

import (
	"github.com/marcelomar21/bets-estatistica/internal/config"
	"go.uber.org/fx"
)

func NewMessenger(cfg config.Config) Messenger {
	return NewBot(cfg.TelegramBotToken)
}

var Module = fx.Module("providers.telegram",
	fx.Provide(NewMessenger),
)
