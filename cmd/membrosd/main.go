package main

import (
	"github.com/marcelomar21/bets-estatistica/internal/alerter"
	"github.com/marcelomar21/bets-estatistica/internal/clock"
	"github.com/marcelomar21/bets-estatistica/internal/config"
	"github.com/marcelomar21/bets-estatistica/internal/group"
	"github.com/marcelomar21/bets-estatistica/internal/jobs/graceperiod"
	"github.com/marcelomar21/bets-estatistica/internal/jobs/reconciliation"
	"github.com/marcelomar21/bets-estatistica/internal/logger"
	"github.com/marcelomar21/bets-estatistica/internal/member"
	"github.com/marcelomar21/bets-estatistica/internal/migration"
	"github.com/marcelomar21/bets-estatistica/internal/observability/metrics"
	"github.com/marcelomar21/bets-estatistica/internal/providers/payment"
	"github.com/marcelomar21/bets-estatistica/internal/providers/telegram"
	"github.com/marcelomar21/bets-estatistica/internal/scheduler"
	"github.com/marcelomar21/bets-estatistica/internal/server"
	"github.com/marcelomar21/bets-estatistica/internal/webhook/dispatcher"
	"github.com/marcelomar21/bets-estatistica/internal/webhook/handlers"
	"github.com/marcelomar21/bets-estatistica/internal/webhookevent"
	"github.com/marcelomar21/bets-estatistica/pkg/db"
	"github.com/marcelomar21/bets-estatistica/pkg/id"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		id.Module,
		metrics.Module,
		db.Module,
		migration.Module,

		group.Module,
		member.Module,
		webhookevent.Module,

		payment.Module,
		telegram.Module,
		alerter.Module,

		handlers.Module,
		dispatcher.Module,
		graceperiod.Module,
		reconciliation.Module,
		scheduler.Module,
		server.Module,
	).Run()
}
