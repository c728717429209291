// Package alerter sends operational notifications to the admin chat. Alerts
// are fire-and-forget: delivery failure is logged and swallowed so an alert
// can never take down the path that raised it.
package alerter

import (
	"context"

	"github.com/marcelomar21/bets-estatistica/internal/providers/telegram"
	"go.uber.org/zap"
)

type Alerter interface {
	Alert(ctx context.Context, text string)
}

type telegramAlerter struct {
	messenger   telegram.Messenger
	adminChatID int64
	logger      *zap.Logger
}

// NewTelegramAlerter delivers alerts to the configured admin chat. A zero
// adminChatID yields a no-op alerter.
func NewTelegramAlerter(messenger telegram.Messenger, adminChatID int64, logger *zap.Logger) Alerter {
	if adminChatID == 0 {
		return noopAlerter{logger: logger}
	}
	return &telegramAlerter{
		messenger:   messenger,
		adminChatID: adminChatID,
		logger:      logger.Named("alerter"),
	}
}

func (a *telegramAlerter) Alert(ctx context.Context, text string) {
	if err := a.messenger.SendPrivateMessage(ctx, a.adminChatID, text); err != nil {
		a.logger.Warn("alert.delivery_failed",
			zap.Error(err),
			zap.String("text", text),
		)
		return
	}
	a.logger.Info("alert.sent", zap.String("text", text))
}

type noopAlerter struct {
	logger *zap.Logger
}

func (a noopAlerter) Alert(_ context.Context, text string) {
	a.logger.Warn("alert.unconfigured", zap.String("text", text))
}
