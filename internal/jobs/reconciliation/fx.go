package reconciliation

import (
	"go.uber.org/fx"
)

var Module = fx.Module("jobs.reconciliation",
	fx.Provide(New),
)
