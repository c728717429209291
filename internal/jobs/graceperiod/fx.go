package graceperiod

import (
	"go.uber.org/fx"
)

var Module = fx.Module("jobs.graceperiod",
	fx.Provide(New),
)
