package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func flushOnStop(lc fx.Lifecycle, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// Sync can fail on stderr; nothing actionable at shutdown.
			_ = log.Sync()
			return nil
		},
	})
}

var Module = fx.Module("logger",
	fx.Provide(New),
	fx.Invoke(flushOnStop),
)
