package alerter

import (
	"github.com/marcelomar21/bets-estatistica/internal/config"
	"github.com/marcelomar21/bets-estatistica/internal/providers/telegram"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newAlerter(messenger telegram.Messenger, cfg config.Config, logger *zap.Logger) Alerter {
	return NewTelegramAlerter(messenger, cfg.TelegramAdminChatID, logger)
}

var Module = fx.Module("alerter",
	fx.Provide(newAlerter),
)
